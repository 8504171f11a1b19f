// Manual smoke harness for the case API endpoints. Not part of the TUI:
// point it at a deployment with CASEDESK_API_BASE_URL and CASEDESK_TOKEN and
// it prints what the list screens would show.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/robby/casedesk/internal/auth"
	"github.com/robby/casedesk/internal/caseapi"
	"github.com/robby/casedesk/internal/config"
	"github.com/robby/casedesk/internal/domain"
	"github.com/robby/casedesk/internal/format"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Token == "" {
		log.Fatal("smoke harness needs CASEDESK_TOKEN set")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	client := caseapi.New(cfg.APIBaseURL, auth.NewStaticProvider(cfg.Token), logger)
	ctx := context.Background()

	for _, scope := range []domain.Scope{domain.ScopeMine, domain.ScopeTeam} {
		cases, err := client.ListCases(ctx, scope)
		if errors.Is(err, caseapi.ErrTeamForbidden) {
			fmt.Printf("Scope %q: forbidden (no team)\n\n", scope)
			continue
		}
		if err != nil {
			log.Fatalf("list %s cases: %v", scope, err)
		}

		fmt.Printf("Scope %q: %d cases\n", scope, len(cases))
		for _, c := range cases {
			fmt.Printf("  %-12s %-10s %-10s %-10s %s\n",
				c.TicketNumber, c.StatusLabel, c.PriorityLabel,
				format.Relative(c.ModifiedOn), c.Title)
		}
		fmt.Println()

		if scope == domain.ScopeMine && len(cases) > 0 {
			notes, err := client.ListCaseNotes(ctx, scope, cases[0].IncidentID)
			if err != nil {
				log.Fatalf("list notes for %s: %v", cases[0].TicketNumber, err)
			}
			fmt.Printf("Notes on %s (%d):\n", cases[0].TicketNumber, len(notes))
			for _, n := range notes {
				marker := " "
				if n.IsDocument {
					marker = "*"
				}
				fmt.Printf("  %s %-10s %s\n", marker, format.Relative(n.CreatedOn), n.Subject)
			}
			fmt.Println()
		}
	}
}
