package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/genesisproj/launcher/internal/launchersdk"
	"github.com/genesisproj/launcher/internal/updater"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

// progressStep is the percentage between two progress lines.
const progressStep = 10

var stateLabels = map[updater.State]string{
	updater.StateBuildingInventory: "Checking local files",
	updater.StateFetchingManifest:  "Fetching file list",
	updater.StateDiffing:           "Comparing",
	updater.StateDownloading:       "Downloading updates",
}

// progressReporter renders run events for a person watching the console.
// It is driven from a single goroutine.
type progressReporter struct {
	out     io.Writer
	lastPct int
	failed  []string
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out, lastPct: -1}
}

func (r *progressReporter) State(s updater.State) {
	label, ok := stateLabels[s]
	if !ok {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", cyan("==>"), label)
}

// Progress prints a line whenever another progressStep percent has settled,
// and always for the first and the last task.
func (r *progressReporter) Progress(completed, total int) {
	if total <= 0 {
		return
	}
	pct := completed * 100 / total
	if completed != total && r.lastPct >= 0 && pct/progressStep == r.lastPct/progressStep {
		return
	}
	r.lastPct = pct
	fmt.Fprintf(r.out, "    [%*d/%d] %3d%%\n", len(fmt.Sprint(total)), completed, total, pct)
}

func (r *progressReporter) File(ev updater.FileEvent) {
	if ev.Err != nil {
		r.failed = append(r.failed, ev.Path)
	}
}

func (r *progressReporter) Summary(res *updater.Result, stats launchersdk.HTTPStatsSnapshot) {
	if res == nil {
		return
	}
	elapsed := res.Elapsed.Round(time.Millisecond)

	switch res.Status {
	case updater.StatusUpToDate:
		fmt.Fprintf(r.out, "%s client is up to date (%s files checked in %s)\n",
			green("OK"), humanize.Comma(int64(res.Remote)), elapsed)

	case updater.StatusUpdated:
		fmt.Fprintf(r.out, "%s updated %s of %s files, %s downloaded in %s (%d requests)\n",
			green("OK"),
			humanize.Comma(int64(res.Summary.Succeeded)),
			humanize.Comma(int64(res.Summary.Total)),
			humanize.Bytes(uint64(res.Summary.Bytes)),
			elapsed,
			stats.Requests,
		)
		if len(r.failed) > 0 {
			fmt.Fprintf(r.out, "%s %d files could not be downloaded:\n", red("!!"), len(r.failed))
			for _, path := range r.failed {
				fmt.Fprintf(r.out, "    %s\n", path)
			}
		}

	case updater.StatusFailed:
		code := res.ErrorCode
		if code == "" {
			code = "unknown"
		}
		fmt.Fprintf(r.out, "%s update failed [%s]: %v\n", red("FAILED"), code, res.Err)
	}
}
