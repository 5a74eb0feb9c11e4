//go:build ignore

// Package main generates a synthetic document corpus for manually
// exercising indexing and search, including Japanese text.
// Usage: go run scripts/generate-test-corpus.go -files 500 -output testdata/corpus
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles  = flag.Int("files", 500, "Number of files to generate")
	outputDir = flag.String("output", "testdata/corpus", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var englishWords = []string{
	"report", "revenue", "quarterly", "meeting", "schedule", "budget",
	"project", "deadline", "review", "summary", "analysis", "forecast",
	"planning", "rollout", "maintenance", "proposal", "draft", "final",
}

var japaneseSentences = []string{
	"東京への出張の日程を確認してください。",
	"来期の予算案について会議で検討します。",
	"新しい検索機能の設計書を添付します。",
	"京都観光の資料をまとめました。",
	"プロジェクトの進捗は予定より少し遅れています。",
	"議事録は共有フォルダに保存しました。",
	"システムの保守作業は週末に実施します。",
}

var markdownHeadings = []string{
	"Overview", "Background", "Decisions", "Next Steps", "Notes",
	"概要", "背景", "決定事項", "今後の予定",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	subdirs := []string{"reports", "meetings", "plans", "misc"}
	for _, d := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, d), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	for i := 0; i < *numFiles; i++ {
		dir := subdirs[rng.Intn(len(subdirs))]
		var name, content string
		switch rng.Intn(3) {
		case 0:
			name = fmt.Sprintf("doc-%04d.txt", i)
			content = plainText(rng)
		case 1:
			name = fmt.Sprintf("doc-%04d.md", i)
			content = markdown(rng)
		default:
			name = fmt.Sprintf("memo-%04d.txt", i)
			content = japaneseMemo(rng)
		}

		path := filepath.Join(*outputDir, dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d files under %s\n", *numFiles, *outputDir)
}

func plainText(rng *rand.Rand) string {
	var b strings.Builder
	paragraphs := 2 + rng.Intn(4)
	for p := 0; p < paragraphs; p++ {
		words := 20 + rng.Intn(40)
		for w := 0; w < words; w++ {
			b.WriteString(englishWords[rng.Intn(len(englishWords))])
			b.WriteByte(' ')
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func markdown(rng *rand.Rand) string {
	var b strings.Builder
	sections := 2 + rng.Intn(3)
	for s := 0; s < sections; s++ {
		fmt.Fprintf(&b, "## %s\n\n", markdownHeadings[rng.Intn(len(markdownHeadings))])
		if rng.Intn(2) == 0 {
			b.WriteString(japaneseSentences[rng.Intn(len(japaneseSentences))])
		} else {
			b.WriteString(plainText(rng))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func japaneseMemo(rng *rand.Rand) string {
	var b strings.Builder
	lines := 3 + rng.Intn(6)
	for l := 0; l < lines; l++ {
		b.WriteString(japaneseSentences[rng.Intn(len(japaneseSentences))])
		b.WriteByte('\n')
	}
	return b.String()
}
