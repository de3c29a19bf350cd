// gradebookctl is an interactive client for the gradebook HTTP API.
//
// When stdin is a terminal it runs a REPL with completion; otherwise it
// reads one command per line, which makes it usable in pipes and scripts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"

	"github.com/rollcall/gradebook/internal/client"
	"github.com/rollcall/gradebook/internal/record"
)

const requestTimeout = 30 * time.Second

var commands = []prompt.Suggest{
	{Text: "list", Description: "List all records"},
	{Text: "get", Description: "get <id> - show one record"},
	{Text: "create", Description: "create <id> <name> <field=value>... - add a record"},
	{Text: "update", Description: "update <id> <field=value>... - change fields"},
	{Text: "delete", Description: "delete <id> - remove a record"},
	{Text: "avg", Description: "Per-record averages"},
	{Text: "summary", Description: "Per-subject statistics"},
	{Text: "help", Description: "Show command help"},
	{Text: "exit", Description: "Quit"},
}

type ctl struct {
	api *client.Client
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "gradebookd base URL")
	flag.Parse()

	c := &ctl{api: client.New(*addr)}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("gradebookctl connected to %s (type 'help' for commands)\n", *addr)
		p := prompt.New(
			c.execute,
			completer,
			prompt.OptionTitle("gradebookctl"),
			prompt.OptionPrefix("gradebook> "),
		)
		p.Run()
		return
	}

	// Non-interactive: one command per line from stdin.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		c.execute(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
		os.Exit(1)
	}
}

func completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (c *ctl) execute(in string) {
	args := strings.Fields(in)
	if len(args) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var err error
	switch args[0] {
	case "list":
		err = c.list(ctx)
	case "get":
		err = c.get(ctx, args[1:])
	case "create":
		err = c.create(ctx, args[1:])
	case "update":
		err = c.update(ctx, args[1:])
	case "delete":
		err = c.delete(ctx, args[1:])
	case "avg":
		err = c.averages(ctx)
	case "summary":
		err = c.summary(ctx)
	case "help":
		printHelp()
	case "exit", "quit":
		os.Exit(0)
	default:
		err = fmt.Errorf("unknown command %q (type 'help')", args[0])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func printHelp() {
	for _, cmd := range commands {
		fmt.Printf("  %-8s %s\n", cmd.Text, cmd.Description)
	}
}

func (c *ctl) list(ctx context.Context) error {
	set, err := c.api.List(ctx)
	if err != nil {
		return err
	}
	for _, rec := range set {
		printRecord(rec)
	}
	fmt.Printf("%d record(s)\n", len(set))
	return nil
}

func (c *ctl) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <id>")
	}
	rec, err := c.api.Get(ctx, args[0])
	if err != nil {
		return err
	}
	printRecord(rec)
	return nil
}

func (c *ctl) create(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: create <id> <name> <field=value>...")
	}
	fields, err := parseFields(args[2:])
	if err != nil {
		return err
	}
	rec := record.Record{ID: args[0], Name: args[1], Fields: fields}
	if err := c.api.Create(ctx, rec); err != nil {
		return err
	}
	fmt.Printf("created %s\n", rec.ID)
	return nil
}

func (c *ctl) update(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: update <id> <field=value>...")
	}
	fields, err := parseFields(args[1:])
	if err != nil {
		return err
	}
	rec, err := c.api.Update(ctx, args[0], nil, fields)
	if err != nil {
		return err
	}
	printRecord(rec)
	return nil
}

func (c *ctl) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	if err := c.api.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func (c *ctl) averages(ctx context.Context) error {
	metrics, err := c.api.Averages(ctx)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		fmt.Printf("  %-10s %-20s %.2f\n", m.ID, m.Name, m.Average)
	}
	fmt.Printf("%d average(s)\n", len(metrics))
	return nil
}

func (c *ctl) summary(ctx context.Context) error {
	stats, err := c.api.Summary(ctx)
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Printf("  %-10s count=%d min=%.2f max=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f\n",
			s.Field, s.Count, s.Min, s.Max, s.Avg, s.P50, s.P95, s.P99)
	}
	return nil
}

func parseFields(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		fields[key] = value
	}
	return fields, nil
}

func printRecord(rec record.Record) {
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, rec.Fields[name]))
	}
	fmt.Printf("  %-10s %-20s %s\n", rec.ID, rec.Name, strings.Join(parts, " "))
}
