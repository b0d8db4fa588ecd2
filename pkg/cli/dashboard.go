package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/cli/config"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdDashboard() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"d"},
		Usage:   "Print case statistics and pending contacts",
		Flags:   repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			stats, err := usecase.New(repo).Case.Dashboard(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to build dashboard")
			}

			printDashboard(os.Stdout, stats)
			return nil
		},
	}
}

func printDashboard(w io.Writer, stats *model.DashboardStats) {
	title := color.New(color.Bold, color.FgCyan)
	label := color.New(color.FgHiBlack)

	_, _ = title.Fprintln(w, "Cases")
	_, _ = fmt.Fprintf(w, "  %s %d\n", label.Sprint("total:"), stats.Total)
	_, _ = fmt.Fprintf(w, "  %s %d\n", label.Sprint("open:"), stats.OpenCases)
	_, _ = fmt.Fprintf(w, "  %s %d\n", label.Sprint("resolved:"), stats.ResolvedCases)

	_, _ = title.Fprintln(w, "By status")
	for _, s := range types.AllCaseStatuses() {
		_, _ = fmt.Fprintf(w, "  %-12s %3d  %5.1f%%\n", s, stats.ByStatus[s], stats.Percentages[s])
	}

	if len(stats.RecentCases) > 0 {
		_, _ = title.Fprintln(w, "Recent")
		for _, c := range stats.RecentCases {
			_, _ = fmt.Fprintf(w, "  %s %s %s\n", c.ID, statusColor(c.Status).Sprintf("[%s]", c.Status), c.Title)
		}
	}

	if len(stats.PendingContacts) > 0 {
		_, _ = title.Fprintln(w, "Waiting on")
		for _, g := range stats.PendingContacts {
			_, _ = color.New(color.FgYellow).Fprintf(w, "  %s (%d)\n", g.Person, len(g.Cases))
			for _, e := range g.Cases {
				where := e.StepTitle
				if e.FromCase {
					where = "case"
				}
				_, _ = fmt.Fprintf(w, "    %s %s %s\n", e.CaseID, e.CaseTitle, label.Sprintf("(%s)", where))
			}
		}
	}
}

func statusColor(s types.CaseStatus) *color.Color {
	switch s {
	case types.CaseStatusOpen:
		return color.New(color.FgBlue)
	case types.CaseStatusInProgress:
		return color.New(color.FgCyan)
	case types.CaseStatusPending:
		return color.New(color.FgYellow)
	case types.CaseStatusResolved:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgHiBlack)
	}
}
