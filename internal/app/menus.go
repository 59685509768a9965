package app

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// recentResults is how many results "my results" shows.
const recentResults = 10

func (d *Dispatcher) mainButtons(user User) [][]Button {
	rows := [][]Button{
		row(button(labelTakeTest, Command{Kind: CmdStartTest})),
		row(button(labelMyResults, Command{Kind: CmdMyResults})),
	}
	if d.author.IsAdmin(user) {
		rows = append(rows, row(button(labelAdminPanel, Command{Kind: CmdAdminPanel})))
	}
	return rows
}

func (d *Dispatcher) welcome(user User) Reply {
	return textReply(fmt.Sprintf(msgWelcome, user.FirstName), d.mainButtons(user)...)
}

func (d *Dispatcher) mainMenu(user User) Reply {
	return textReply(msgMainMenu, d.mainButtons(user)...)
}

func (d *Dispatcher) subjectMenu() Reply {
	rows := make([][]Button, 0, len(d.catalog)+1)
	for _, s := range d.catalog {
		rows = append(rows, row(button(d.catalog.Title(s.Name), Command{Kind: CmdSubject, Arg: s.Name})))
	}
	rows = append(rows, row(button(labelBack, Command{Kind: CmdBackToMain})))
	return textReply(msgChooseSubject, rows...)
}

func (d *Dispatcher) adminPanel(user User) Reply {
	if !d.author.IsAdmin(user) {
		return textReply(msgPermissionDenied)
	}
	return textReply(msgAdminPanel,
		row(button(labelAddQuestion, Command{Kind: CmdAddQuestion})),
		row(button(labelStats, Command{Kind: CmdAdminStats})),
		row(button(labelBack, Command{Kind: CmdBackToMain})),
	)
}

func (d *Dispatcher) stats(ctx context.Context, user User) Reply {
	if !d.author.IsAdmin(user) {
		return textReply(msgPermissionDenied)
	}
	stats, err := d.repo.Stats(ctx)
	if err != nil {
		log.Printf("load stats: %v", err)
		return textReply(msgFailure, row(button(labelBack, Command{Kind: CmdAdminPanel})))
	}

	var b strings.Builder
	fmt.Fprintf(&b, msgStats, stats.Users, stats.CompletedTests)
	for _, s := range stats.Subjects {
		fmt.Fprintf(&b, msgStatsLine, d.catalog.Title(s.Subject), s.Count)
	}
	return textReply(b.String(), row(button(labelBack, Command{Kind: CmdAdminPanel})))
}

func (d *Dispatcher) myResults(ctx context.Context, user User) Reply {
	results, err := d.repo.Results(ctx, user.ID)
	if err != nil {
		log.Printf("load results for user %d: %v", user.ID, err)
		return textReply(msgFailure, row(button(labelBack, Command{Kind: CmdBackToMain})))
	}
	if len(results) == 0 {
		return textReply(msgNoResults, row(
			button(labelTakeTest, Command{Kind: CmdStartTest}),
			button(labelBack, Command{Kind: CmdBackToMain}),
		))
	}

	if len(results) > recentResults {
		results = results[len(results)-recentResults:]
	}
	var b strings.Builder
	b.WriteString(msgResultsHeader)
	for i, r := range results {
		fmt.Fprintf(&b, msgResultLine, i+1, d.catalog.Title(r.Subject), r.Score, r.Total, r.Percentage)
	}
	return textReply(b.String(), row(button(labelBack, Command{Kind: CmdBackToMain})))
}
