package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/runner"
	"github.com/ruffel/sshrpc/sshrpctest"
	"github.com/spf13/cobra"
)

func (a *app) checkCommand() *cobra.Command {
	var (
		skipLocal bool
		category  string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the execution contract suite against the local shell and the remote host",
		Long: `Runs every sshrpc contract against a local sh target and, when a host is
given, an ssh session, then prints a parity matrix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("sshrpc contract check"))

			targets := make(map[string]sshrpc.Target)

			if !skipLocal {
				local := runner.NewTarget(runner.New(runner.WithOutput(nil, nil)), nil)
				defer func() { _ = local.Close() }()

				targets["local"] = local
			}

			if a.flags.host != "" {
				s, err := a.open(cmd)
				if err != nil {
					fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("ssh session failed: %v", err)))
				} else {
					defer func() { _ = s.Close() }()

					targets["ssh"] = s
				}
			}

			if len(targets) == 0 {
				return errors.New("no targets available to check")
			}

			contracts := filterContracts(sshrpctest.AllContracts(), category)
			names := sortedTargetNames(targets)

			fmt.Fprintln(out, infoStyle.Render("Running contracts against: "+strings.Join(names, ", ")))

			matrix := runMatrix(cmd.Context(), targets, contracts)
			if failed := renderMatrix(out, names, contracts, matrix); failed {
				return errors.New("contract failures detected")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipLocal, "skip-local", false, "do not run the suite against the local shell")
	cmd.Flags().StringVar(&category, "category", "", "only run contracts in this category")

	return cmd
}

type testResult struct {
	passed  bool
	skipped bool
	errMsg  string
	skipMsg string
}

// cliTester satisfies sshrpctest.T outside of "go test". FailNow and Skipf
// unwind the contract with a panic that runContract recovers.
type cliTester struct {
	ctx      context.Context //nolint:containedctx
	name     string
	failed   bool
	skipped  bool
	errMsg   string
	skipMsg  string
	tempDirs []string
	cleanups []func()
}

func (c *cliTester) Errorf(f string, a ...any) {
	c.failed = true

	if c.errMsg == "" {
		c.errMsg = strings.TrimSpace(fmt.Sprintf(f, a...))
	}
}

func (c *cliTester) FailNow() {
	c.failed = true

	panic(failNow{})
}

func (c *cliTester) Skipf(f string, a ...any) {
	c.skipped = true
	c.skipMsg = fmt.Sprintf(f, a...)

	panic(skipNow{})
}

func (c *cliTester) Context() context.Context {
	return c.ctx
}

func (c *cliTester) Name() string {
	return c.name
}

func (c *cliTester) TempDir() string {
	dir, err := os.MkdirTemp("", "sshrpc-check-*")
	if err != nil {
		panic(err)
	}

	c.tempDirs = append(c.tempDirs, dir)

	return dir
}

func (c *cliTester) Cleanup(fn func()) {
	c.cleanups = append(c.cleanups, fn)
}

// finish runs registered cleanups last-in first-out, then removes temp dirs.
func (c *cliTester) finish() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}

	for _, dir := range c.tempDirs {
		_ = os.RemoveAll(dir)
	}
}

type failNow struct{}

type skipNow struct{}

func filterContracts(all []sshrpctest.TestCase, category string) []sshrpctest.TestCase {
	if category == "" {
		return all
	}

	var out []sshrpctest.TestCase

	for _, tc := range all {
		if strings.EqualFold(tc.Category, category) {
			out = append(out, tc)
		}
	}

	return out
}

func runMatrix(ctx context.Context, targets map[string]sshrpc.Target, contracts []sshrpctest.TestCase) map[string]map[string]testResult {
	data := make(map[string]map[string]testResult)

	for name, target := range targets {
		for _, tc := range contracts {
			row := data[tc.ID()]
			if row == nil {
				row = make(map[string]testResult)
				data[tc.ID()] = row
			}

			row[name] = runContract(ctx, tc, target)
		}
	}

	return data
}

func runContract(ctx context.Context, tc sshrpctest.TestCase, target sshrpc.Target) testResult {
	t := &cliTester{ctx: ctx, name: tc.ID()}

	func() {
		defer t.finish()
		defer func() {
			if r := recover(); r != nil {
				switch r.(type) {
				case failNow, skipNow:
				default:
					panic(r)
				}
			}
		}()

		sshrpctest.Run(t, tc, target)
	}()

	return testResult{
		passed:  !t.failed && !t.skipped,
		skipped: t.skipped,
		errMsg:  t.errMsg,
		skipMsg: t.skipMsg,
	}
}

func sortedTargetNames(targets map[string]sshrpc.Target) []string {
	names := make([]string, 0, len(targets))
	for n := range targets {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// renderMatrix prints one row per contract and reports whether any failed.
func renderMatrix(w io.Writer, names []string, contracts []sshrpctest.TestCase, matrix map[string]map[string]testResult) bool {
	nameWidth, colWidth := computeColumnWidths(contracts, names)

	renderHeader(w, names, nameWidth, colWidth)

	var (
		currentCat string
		issues     []string
		hasNA      bool
	)

	for _, tc := range contracts {
		if tc.Category != currentCat {
			currentCat = tc.Category
			fmt.Fprintln(w, catStyle.Render(strings.ToUpper(currentCat)))
		}

		rowIssues, rowHasNA := renderRow(w, tc, names, matrix[tc.ID()], nameWidth, colWidth)

		hasNA = hasNA || rowHasNA
		issues = append(issues, rowIssues...)
	}

	switch {
	case len(issues) > 0:
		fmt.Fprintln(w, errorStyle.Render("Issue details:"))

		for _, issue := range issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	case hasNA:
		fmt.Fprintln(w, infoStyle.Render("No failures; some contracts were skipped."))
	default:
		fmt.Fprintln(w, checkStyle.Render("All targets honour the contract."))
	}

	return len(issues) > 0
}

func computeColumnWidths(contracts []sshrpctest.TestCase, names []string) (int, int) {
	const (
		nameMinWidth = 30
		nameMaxWidth = 48
		colMinWidth  = 8
	)

	nameWidth := len("CONTRACT")
	for _, tc := range contracts {
		nameWidth = max(nameWidth, len(tc.Name))
	}

	nameWidth = min(max(nameWidth, nameMinWidth), nameMaxWidth)

	colWidth := max(len("SKIPPED"), colMinWidth)
	for _, n := range names {
		colWidth = max(colWidth, len(n))
	}

	return nameWidth, colWidth
}

func renderHeader(w io.Writer, names []string, nameWidth, colWidth int) {
	var header strings.Builder

	header.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", nameWidth, "CONTRACT")))

	for _, n := range names {
		header.WriteString(" ")
		header.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", colWidth, strings.ToUpper(n))))
	}

	header.WriteString(" ")
	header.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", 10, "PARITY")))

	fmt.Fprintln(w, "\n"+header.String())
}

func renderRow(w io.Writer, tc sshrpctest.TestCase, names []string, row map[string]testResult, nameWidth, colWidth int) ([]string, bool) {
	var (
		line       strings.Builder
		issues     []string
		anySkipped bool
	)

	line.WriteString(rowStyle.Render(fmt.Sprintf("%-*s", nameWidth, fitColumn(tc.Name, nameWidth))))

	for _, n := range names {
		res := row[n]
		status, style := "PASSED", passedStyle

		switch {
		case res.skipped:
			status, style = "SKIPPED", skippedStyle
			anySkipped = true
		case !res.passed:
			status, style = "FAILED", failedStyle
			issues = append(issues, fmt.Sprintf("[%s] %s: %s", strings.ToUpper(n), tc.ID(), res.errMsg))
		}

		line.WriteString(" ")
		line.WriteString(style.Render(fmt.Sprintf("%-*s", colWidth, status)))
	}

	parity := parityMatchStyle.Render("MATCH")
	if len(issues) > 0 {
		parity = parityDivergedStyle.Render("DIVERGED")
	} else if anySkipped {
		parity = parityNAStyle.Render("N/A")
	}

	line.WriteString(" ")
	line.WriteString(parity)

	fmt.Fprintln(w, line.String())

	return issues, anySkipped
}

func fitColumn(value string, width int) string {
	if len(value) <= width {
		return value
	}

	if width <= 1 {
		return value[:width]
	}

	return value[:width-1] + "…"
}
