// Command filectl walks a filing through the application wizard from
// the terminal. It talks to a running filings server and mirrors the
// step sequence the web client uses, so a filing started in one can be
// resumed in the other.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lexfield/filings-backend/internal/apiclient"
	"github.com/lexfield/filings-backend/internal/wizard"
)

// prompt describes one value collected for a wizard step. File prompts
// accept a comma-separated list of local paths.
type prompt struct {
	key      string
	label    string
	file     bool
	numeric  bool
	optional bool
}

var stepPrompts = map[string]map[int][]prompt{
	apiclient.ResourceCopyright: {
		1: {
			{key: "title", label: "Work title"},
			{key: "work_type", label: "Work type (literary, musical, visual, software)", optional: true},
			{key: "description", label: "Description", optional: true},
		},
		2: {
			{key: "author_name", label: "Author name", optional: true},
			{key: "applicant_name", label: "Applicant name"},
			{key: "applicant_email", label: "Applicant email"},
		},
		3: {
			{key: "primary", label: "Work file path", file: true},
			{key: "documents", label: "Supporting document paths", file: true, optional: true},
		},
		4: {
			{key: "amount", label: "Payment amount", numeric: true},
			{key: "payment_method", label: "Payment method", optional: true},
		},
	},
	apiclient.ResourcePatents: {
		1: {
			{key: "invention_title", label: "Invention title"},
			{key: "technical_field", label: "Technical field", optional: true},
		},
		2: {
			{key: "inventor_name", label: "Inventor name"},
			{key: "applicant_name", label: "Applicant name"},
			{key: "applicant_email", label: "Applicant email", optional: true},
		},
		3: {
			{key: "abstract", label: "Abstract"},
			{key: "claims", label: "Claims (one per line, blank line to finish)", optional: true},
		},
		4: {
			{key: "drawings", label: "Technical drawing paths", file: true, optional: true},
			{key: "documents", label: "Supporting document paths", file: true, optional: true},
		},
		5: {
			{key: "amount", label: "Payment amount", numeric: true},
			{key: "payment_method", label: "Payment method", optional: true},
		},
	},
}

func main() {
	var (
		server = flag.String("server", "http://localhost:8080", "base URL of the filings server")
		token  = flag.String("token", os.Getenv("FILINGS_TOKEN"), "bearer token (defaults to FILINGS_TOKEN)")
		resume = flag.String("resume", "", "application ID to resume instead of starting fresh")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: filectl [flags] copyright|patent")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var resource string
	switch flag.Arg(0) {
	case "copyright":
		resource = apiclient.ResourceCopyright
	case "patent", "patents":
		resource = apiclient.ResourcePatents
	default:
		fmt.Fprintf(os.Stderr, "unknown filing type %q\n", flag.Arg(0))
		os.Exit(2)
	}

	client := apiclient.New(*server, *token)
	ctx := context.Background()

	var flow *wizard.Flow
	var err error
	if *resume != "" {
		flow, err = wizard.Resume(ctx, client, resource, *resume)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot resume application: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Resuming %s at step %d of %d\n", flow.State().ApplicationNumber, flow.State().Step, flow.StepCount())
	} else {
		switch resource {
		case apiclient.ResourceCopyright:
			flow = wizard.NewCopyrightFlow(client)
		default:
			flow = wizard.NewPatentFlow(client)
		}
	}

	if err := run(ctx, flow, resource); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flow *wizard.Flow, resource string) error {
	reader := bufio.NewReader(os.Stdin)

	for !flow.Done() {
		step := flow.Current()
		fmt.Printf("\n[%d/%d] %s\n", step.Number, flow.StepCount(), step.Name)

		collect(reader, flow.State(), stepPrompts[resource][step.Number])

		if err := flow.Next(ctx); err != nil {
			var vErr *wizard.ValidationError
			if errors.As(err, &vErr) {
				fmt.Printf("  %v\n", err)
				continue
			}
			return fmt.Errorf("step %d failed: %w", step.Number, err)
		}

		state := flow.State()
		if step.Number == 1 && state.ApplicationNumber != "" {
			fmt.Printf("  Application number: %s\n", state.ApplicationNumber)
		}
	}

	state := flow.State()
	fmt.Printf("\nFiling complete: %s (status %s)\n", state.ApplicationNumber, state.Status)
	return nil
}

func collect(reader *bufio.Reader, state *wizard.State, prompts []prompt) {
	for _, p := range prompts {
		if p.key == "claims" {
			collectClaims(reader, state)
			continue
		}

		fmt.Printf("  %s: ", p.label)
		line, _ := reader.ReadString('\n')
		value := strings.TrimSpace(line)
		if value == "" {
			continue
		}

		switch {
		case p.file:
			for _, path := range strings.Split(value, ",") {
				if path = strings.TrimSpace(path); path != "" {
					state.AddFile(p.key, path)
				}
			}
		case p.numeric:
			if amount, err := strconv.ParseFloat(value, 64); err == nil {
				state.SetField(p.key, amount)
			}
		default:
			state.SetField(p.key, value)
		}
	}
}

func collectClaims(reader *bufio.Reader, state *wizard.State) {
	fmt.Println("  Claims (one per line, blank line to finish):")
	var claims []string
	for {
		fmt.Print("    - ")
		line, err := reader.ReadString('\n')
		claim := strings.TrimSpace(line)
		if claim == "" || err != nil {
			break
		}
		claims = append(claims, claim)
	}
	if len(claims) > 0 {
		state.SetField("claims", claims)
	}
}
