package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"rteditor/internal/config"
	"rteditor/pkg/rteditor"
)

var (
	// Input/Output flags
	inputFile  = flag.String("input", "", "Input HTML file path (default: stdin)")
	outputFile = flag.String("output", "", "Output HTML file path (default: stdout)")
	inputDir   = flag.String("input-dir", "", "Normalize all HTML files in directory")
	outputDir  = flag.String("output-dir", "", "Output directory for batch processing")

	// Configuration flags
	classMapFile = flag.String("class-map", "", "JSON file mapping tag names to class strings")

	// Output control flags
	verbose = flag.Bool("verbose", false, "Log progress and diagnostics")
	quiet   = flag.Bool("quiet", false, "Suppress all output except errors")
	logFile = flag.String("log-file", "", "Also write JSON logs to this file (rotated)")

	// Validation flags
	validate = flag.Bool("validate", false, "Report what sanitization would remove (no output)")
)

func main() {
	flag.Parse()

	if err := validateArgs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(*logFile, *verbose)
	defer func() { _ = logger.Sync() }()

	classMap, err := loadClassMap(*classMapFile)
	if err != nil {
		logger.Error("failed to load class map", zap.Error(err))
		os.Exit(1)
	}

	switch {
	case *validate:
		err = runValidation(classMap)
	case *inputDir != "":
		err = runBatchProcessing(logger, classMap)
	default:
		err = runSingle(classMap)
	}

	if err != nil {
		logger.Error("processing failed", zap.Error(err))
		os.Exit(1)
	}
}

// validateArgs validates command line arguments
func validateArgs() error {
	if *inputFile != "" && *inputDir != "" {
		return fmt.Errorf("cannot specify both -input and -input-dir")
	}
	if *inputDir != "" && *outputDir == "" {
		return fmt.Errorf("-output-dir required when using -input-dir")
	}
	if *validate && *inputDir != "" {
		return fmt.Errorf("-validate works on a single input")
	}
	if *quiet && *verbose {
		return fmt.Errorf("cannot specify both -quiet and -verbose")
	}
	return nil
}

// loadClassMap reads tag class overrides and checks them against the editor's tag policy
func loadClassMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class map %s: %w", path, err)
	}
	var classMap map[string]string
	if err := json.Unmarshal(data, &classMap); err != nil {
		return nil, fmt.Errorf("failed to decode class map %s: %w", path, err)
	}

	cfg := config.Default()
	cfg.ClassMap = classMap
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return classMap, nil
}

// runSingle normalizes one file, or stdin
func runSingle(classMap map[string]string) error {
	content, name, err := readInput()
	if err != nil {
		return err
	}

	out, report := rteditor.NormalizeWithReport(content, classMap)
	if err := writeOutput(out, *outputFile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !*quiet && !report.Clean() {
		fmt.Fprintf(os.Stderr, "%s: sanitized (%s)\n", name, summarize(report))
	}
	return nil
}

// runBatchProcessing normalizes all HTML files in a directory
func runBatchProcessing(logger *zap.Logger, classMap map[string]string) error {
	htmlFiles, err := findHTMLFiles(*inputDir)
	if err != nil {
		return fmt.Errorf("failed to find HTML files: %w", err)
	}
	if len(htmlFiles) == 0 {
		return fmt.Errorf("no HTML files found in directory: %s", *inputDir)
	}

	var total rteditor.Report
	processed := 0
	for i, inputPath := range htmlFiles {
		logger.Debug("normalizing file",
			zap.Int("index", i+1),
			zap.Int("total", len(htmlFiles)),
			zap.String("path", inputPath),
		)

		content, err := os.ReadFile(inputPath)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("path", inputPath), zap.Error(err))
			continue
		}

		out, report := rteditor.NormalizeWithReport(string(content), classMap)

		relPath, _ := filepath.Rel(*inputDir, inputPath)
		outputPath := filepath.Join(*outputDir, relPath)
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			logger.Warn("skipping file", zap.String("path", outputPath), zap.Error(err))
			continue
		}
		if err := writeOutput(out, outputPath); err != nil {
			logger.Warn("failed to write file", zap.String("path", outputPath), zap.Error(err))
			continue
		}

		total.Add(report)
		processed++
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Files normalized: %d/%d\n", processed, len(htmlFiles))
		if !total.Clean() {
			fmt.Fprintf(os.Stderr, "Sanitized: %s\n", summarize(total))
		}
	}
	return nil
}

// runValidation prints what normalization would change without writing anything
func runValidation(classMap map[string]string) error {
	content, name, err := readInput()
	if err != nil {
		return err
	}

	_, report := rteditor.NormalizeWithReport(content, classMap)
	if report.Clean() {
		if !*quiet {
			color.Green("✓ %s: nothing unsafe found", name)
		}
		return nil
	}

	color.Red("✗ %s: sanitization would remove content", name)
	rows := []struct {
		label string
		count int
	}{
		{"blocked elements removed", report.RemovedSubtrees},
		{"attributes stripped", report.StrippedAttributes},
		{"event handlers", report.EventHandlers},
		{"URLs rejected", report.RejectedURLs},
	}
	for _, row := range rows {
		if row.count > 0 {
			color.Yellow("  %-26s %d", row.label, row.count)
		}
	}
	if report.AliasedElements+report.UnwrappedElements+report.WrappedRuns > 0 {
		fmt.Printf("  also rewritten: %d aliased, %d unwrapped, %d wrapped runs\n",
			report.AliasedElements, report.UnwrappedElements, report.WrappedRuns)
	}
	return nil
}

func readInput() (content, name string, err error) {
	var data []byte
	if *inputFile != "" {
		data, err = os.ReadFile(*inputFile)
		name = *inputFile
	} else {
		data, err = io.ReadAll(os.Stdin)
		name = "<stdin>"
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), name, nil
}

func summarize(r rteditor.Report) string {
	return fmt.Sprintf("%d removed, %d attributes stripped, %d URLs rejected",
		r.RemovedSubtrees, r.StrippedAttributes, r.RejectedURLs)
}

// writeOutput writes content to a file or stdout
func writeOutput(content, filename string) error {
	if filename == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

// findHTMLFiles finds all HTML files in a directory
func findHTMLFiles(dir string) ([]string, error) {
	var htmlFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".html" || ext == ".htm" {
				htmlFiles = append(htmlFiles, path)
			}
		}
		return nil
	})

	return htmlFiles, err
}
