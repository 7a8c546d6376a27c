// Package main runs the archive benchmarks and outputs results to JSON/Markdown.
// Run with: go run benchmarks/run_benchmarks.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkResults holds all benchmark data
type BenchmarkResults struct {
	Timestamp   string           `json:"timestamp"`
	Environment Environment      `json:"environment"`
	Groups      map[string]Group `json:"groups"`
	Summary     Summary          `json:"summary"`
}

type Environment struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Group struct {
	Benchmarks []Benchmark `json:"benchmarks"`
}

type Benchmark struct {
	Name        string  `json:"name"`
	NsPerOp     float64 `json:"ns_per_op"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	MBPerSec    float64 `json:"mb_per_sec,omitempty"`
	BytesPerOp  int64   `json:"bytes_per_op"`
	AllocsPerOp int64   `json:"allocs_per_op"`
}

// Summary reports the best throughput seen per group.
type Summary struct {
	PackMBPerSec   float64 `json:"pack_mb_per_sec"`
	UnpackMBPerSec float64 `json:"unpack_mb_per_sec"`
	XMLMBPerSec    float64 `json:"xml_mb_per_sec"`
}

// suites maps a group name to the benchmark pattern and packages it runs.
var suites = []struct {
	group   string
	pattern string
	pkg     string
}{
	{"pack", "BenchmarkPack", "./pkg/archive/..."},
	{"unpack", "BenchmarkUnpack", "./pkg/archive/..."},
	{"xml", "BenchmarkXML", "./pkg/xmldoc/..."},
}

func main() {
	fmt.Println("==========================================")
	fmt.Println("   RESTCLIENT ARCHIVE BENCHMARKS")
	fmt.Println("==========================================")
	fmt.Println()

	results := BenchmarkResults{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: Environment{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPU:       getCPUInfo(),
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
		Groups: make(map[string]Group),
	}

	for _, s := range suites {
		fmt.Printf("Running %s benchmarks...\n", s.group)
		results.Groups[s.group] = Group{Benchmarks: runBenchmarks(s.pattern, s.pkg)}
	}
	results.Summary = calculateSummary(results.Groups)

	if err := os.MkdirAll(filepath.Join("benchmarks", "results"), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating results dir: %v\n", err)
		os.Exit(1)
	}

	jsonPath := "benchmarks/results/latest.json"
	if err := writeJSON(results, jsonPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", jsonPath, err)
		os.Exit(1)
	}
	fmt.Printf("\nJSON results: %s\n", jsonPath)

	mdPath := "benchmarks/results/LATEST.md"
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(results)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", mdPath, err)
		os.Exit(1)
	}
	fmt.Printf("Markdown results: %s\n", mdPath)

	printSummary(results)
}

func getCPUInfo() string {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile("/proc/cpuinfo")
		if err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "model name") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1])
					}
				}
			}
		}
	}
	return "unknown"
}

func runBenchmarks(pattern, pkg string) []Benchmark {
	cmd := exec.Command("go", "test", "-run=^$", "-bench="+pattern, "-benchtime=2s", "-benchmem", pkg)
	output, _ := cmd.CombinedOutput()
	return parseBenchmarkOutput(string(output))
}

// Pattern: BenchmarkName/sub-N  iterations  ns/op  [MB/s]  B/op  allocs/op
var benchLine = regexp.MustCompile(`(Benchmark[\w/.-]+?)-\d+\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+MB/s)?\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

func parseBenchmarkOutput(output string) []Benchmark {
	var benchmarks []Benchmark

	for _, match := range benchLine.FindAllStringSubmatch(output, -1) {
		nsPerOp, _ := strconv.ParseFloat(match[3], 64)
		mbPerSec, _ := strconv.ParseFloat(match[4], 64)
		bytesPerOp, _ := strconv.ParseInt(match[5], 10, 64)
		allocsPerOp, _ := strconv.ParseInt(match[6], 10, 64)

		opsPerSec := 0.0
		if nsPerOp > 0 {
			opsPerSec = 1e9 / nsPerOp
		}

		benchmarks = append(benchmarks, Benchmark{
			Name:        match[1],
			NsPerOp:     nsPerOp,
			OpsPerSec:   opsPerSec,
			MBPerSec:    mbPerSec,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}
	return benchmarks
}

func calculateSummary(groups map[string]Group) Summary {
	best := func(name string) float64 {
		var top float64
		for _, b := range groups[name].Benchmarks {
			if b.MBPerSec > top {
				top = b.MBPerSec
			}
		}
		return top
	}
	return Summary{
		PackMBPerSec:   best("pack"),
		UnpackMBPerSec: best("unpack"),
		XMLMBPerSec:    best("xml"),
	}
}

func writeJSON(results BenchmarkResults, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func renderMarkdown(results BenchmarkResults) string {
	var sb strings.Builder

	sb.WriteString("# restclient Benchmark Results\n\n")
	fmt.Fprintf(&sb, "**Generated**: %s\n\n", results.Timestamp)
	sb.WriteString("## Environment\n\n")
	fmt.Fprintf(&sb, "- **OS**: %s/%s\n", results.Environment.OS, results.Environment.Arch)
	fmt.Fprintf(&sb, "- **CPU**: %s (%d cores)\n", results.Environment.CPU, results.Environment.NumCPU)
	fmt.Fprintf(&sb, "- **Go**: %s\n\n", results.Environment.GoVersion)

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Operation | Best throughput |\n")
	sb.WriteString("|-----------|-----------------|\n")
	fmt.Fprintf(&sb, "| Pack | %.1f MB/s |\n", results.Summary.PackMBPerSec)
	fmt.Fprintf(&sb, "| Unpack | %.1f MB/s |\n", results.Summary.UnpackMBPerSec)
	fmt.Fprintf(&sb, "| XML codec | %.1f MB/s |\n\n", results.Summary.XMLMBPerSec)

	names := make([]string, 0, len(results.Groups))
	for name := range results.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	title := cases.Title(language.English)
	for _, name := range names {
		fmt.Fprintf(&sb, "## %s\n\n", title.String(name))
		sb.WriteString("| Benchmark | ops/sec | ns/op | MB/s | B/op | allocs/op |\n")
		sb.WriteString("|-----------|---------|-------|------|------|-----------|\n")
		for _, b := range results.Groups[name].Benchmarks {
			fmt.Fprintf(&sb, "| %s | %.0f | %.0f | %.1f | %d | %d |\n",
				b.Name, b.OpsPerSec, b.NsPerOp, b.MBPerSec, b.BytesPerOp, b.AllocsPerOp)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Reproducing\n\n")
	sb.WriteString("```bash\n")
	sb.WriteString("go run benchmarks/run_benchmarks.go\n")
	sb.WriteString("# Or individual groups:\n")
	for _, s := range suites {
		fmt.Fprintf(&sb, "go test -run='^$' -bench=%s -benchmem %s\n", s.pattern, s.pkg)
	}
	sb.WriteString("```\n")
	return sb.String()
}

func printSummary(results BenchmarkResults) {
	fmt.Println()
	fmt.Println("==========================================")
	fmt.Println("              SUMMARY")
	fmt.Println("==========================================")
	fmt.Printf("Pack:      %.1f MB/s\n", results.Summary.PackMBPerSec)
	fmt.Printf("Unpack:    %.1f MB/s\n", results.Summary.UnpackMBPerSec)
	fmt.Printf("XML codec: %.1f MB/s\n", results.Summary.XMLMBPerSec)
	fmt.Println("==========================================")
}
