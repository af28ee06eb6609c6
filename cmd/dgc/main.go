package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/credentia/degreechain/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serviceURL string
	cfgFile    string
	authToken  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dgc",
	Short: "degreechain CLI",
	Long: `dgc is the command-line interface for the degreechain ledger service.

It submits degree records, applies authority verification decisions, looks
up records by ID, and inspects the block chain.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.dgc")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serviceURL == "" {
			serviceURL = viper.GetString("service_url")
		}
		if serviceURL == "" {
			serviceURL = "http://localhost:8080"
		}
		if authToken == "" {
			authToken = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.dgc/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service", "", "degreechain service URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "authority bearer token (for verify)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	opts := []client.Option{}
	if authToken != "" {
		opts = append(opts, client.WithToken(authToken))
	}
	return client.New(serviceURL, opts...)
}

// ── submit ───────────────────────────────────────────────────────────────────

var (
	submitName        string
	submitTitle       string
	submitInstitution string
	submitDate        string
)

var submitCmd = &cobra.Command{
	Use:   "submit <document-file>",
	Short: "Submit a degree record with its document",
	Long: `Submit hashes the document, records the degree on the ledger, and
prints the derived degree ID:

  dgc submit --student "Alice" --title "BSc CS" --institution "X U" --date 2024-01-01 degree.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitName, "student", "", "student name (required)")
	submitCmd.Flags().StringVar(&submitTitle, "title", "", "degree title (required)")
	submitCmd.Flags().StringVar(&submitInstitution, "institution", "", "institution name (required)")
	submitCmd.Flags().StringVar(&submitDate, "date", "", "issue date, YYYY-MM-DD (required)")
	submitCmd.MarkFlagRequired("student")     //nolint:errcheck
	submitCmd.MarkFlagRequired("title")       //nolint:errcheck
	submitCmd.MarkFlagRequired("institution") //nolint:errcheck
	submitCmd.MarkFlagRequired("date")        //nolint:errcheck
}

func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec, err := newClient().Submit(ctx, client.SubmitRequest{
		StudentName: submitName,
		DegreeTitle: submitTitle,
		Institution: submitInstitution,
		IssueDate:   submitDate,
		Document:    data,
		Filename:    filepath.Base(args[0]),
	})
	if err != nil {
		return err
	}

	fmt.Printf("degree recorded\n  ID:            %s\n  Status:        %s\n  Document hash: %s\n",
		rec.ID, rec.Status, rec.DocumentHash)
	return nil
}

// ── verify ───────────────────────────────────────────────────────────────────

var (
	verifyDecision string
	verifierCode   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <degree-id>",
	Short: "Apply an authority decision to a degree record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rec, err := newClient().Verify(ctx, args[0], verifyDecision, verifierCode)
		if err != nil {
			return err
		}
		fmt.Printf("degree %s is now %s (verified by %s)\n", rec.ID, rec.Status, rec.VerifiedBy)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDecision, "decision", "", "Approve or Reject (required)")
	verifyCmd.Flags().StringVar(&verifierCode, "verifier", "", "authority code, e.g. HEC (required)")
	verifyCmd.MarkFlagRequired("decision") //nolint:errcheck
	verifyCmd.MarkFlagRequired("verifier") //nolint:errcheck
}

// ── lookup ───────────────────────────────────────────────────────────────────

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <degree-id>",
	Short: "Look up a degree record by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rec, err := newClient().Lookup(ctx, args[0])
		if err != nil {
			return err
		}

		if lookupJSON {
			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Student:\t%s\n", rec.StudentName)
		fmt.Fprintf(w, "Degree:\t%s\n", rec.DegreeTitle)
		fmt.Fprintf(w, "Institution:\t%s\n", rec.Institution)
		fmt.Fprintf(w, "Issue date:\t%s\n", rec.IssueDate)
		fmt.Fprintf(w, "Document hash:\t%s\n", rec.DocumentHash)
		fmt.Fprintf(w, "Status:\t%s\n", rec.Status)
		if rec.VerifiedBy != "" {
			fmt.Fprintf(w, "Verified by:\t%s\n", rec.VerifiedBy)
		}
		if rec.VerificationDate != nil {
			fmt.Fprintf(w, "Verified at:\t%s\n", rec.VerificationDate.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output as JSON")
}

// ── chain ────────────────────────────────────────────────────────────────────

var chainAudit bool

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show the ledger chain overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		c := newClient()
		ov, err := c.Chain(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("blocks:  %d\npending: %d\ntip:     %s\n", ov.Blocks, ov.Pending, ov.Tip)

		if chainAudit {
			res, err := c.Audit(ctx)
			if err != nil {
				return err
			}
			if res.Intact {
				fmt.Println("audit:   intact")
			} else {
				fmt.Printf("audit:   %d issue(s)\n", len(res.Issues))
				for _, issue := range res.Issues {
					fmt.Printf("  block %d: %s\n", issue.Index, issue.Reason)
				}
			}
		}
		return nil
	},
}

func init() {
	chainCmd.Flags().BoolVar(&chainAudit, "audit", false, "also run the integrity audit")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dgc version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dgc", version)
	},
}
