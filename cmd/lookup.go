package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/markup"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [question-id]",
	Short: "Find candidate translations of a question",
	Long:  `Loads a question from the source site, searches the target site for it and lists the candidate questions.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().String("query", "", "search query (defaults to the question title)")
	lookupCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid question id %q", args[0])
	}
	query, _ := cmd.Flags().GetString("query")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := buildDeps(cfg, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	sess, res, err := d.ctrl.Lookup(cmd.Context(), id, query)
	if sess.State() != controller.Ready {
		return sess.Err()
	}
	page, _ := sess.Page()

	if jsonOutput {
		if perr := printLookupJSON(page, res); perr != nil {
			return perr
		}
		return err
	}

	printLookupTable(page, res)
	return err
}

type candidateJSON struct {
	Rank        int    `json:"rank"`
	ID          int    `json:"question_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Score       int    `json:"score"`
	AnswerCount int    `json:"answer_count"`
	Excerpt     string `json:"excerpt"`
}

type lookupJSON struct {
	QuestionID int             `json:"question_id"`
	Title      string          `json:"title"`
	Query      string          `json:"query"`
	Messages   []string        `json:"messages,omitempty"`
	Candidates []candidateJSON `json:"candidates"`
}

func printLookupJSON(page controller.Page, res controller.Results) error {
	out := lookupJSON{
		QuestionID: page.ID,
		Title:      page.Title,
		Query:      res.Query,
		Candidates: []candidateJSON{},
	}
	for _, msg := range res.Messages() {
		out.Messages = append(out.Messages, markup.StripHTML(string(msg)))
	}
	for i, c := range res.Cards() {
		out.Candidates = append(out.Candidates, candidateJSON{
			Rank:        i + 1,
			ID:          c.ID,
			Title:       c.Title,
			Link:        c.Link,
			Score:       c.Score,
			AnswerCount: c.AnswerCount,
			Excerpt:     markup.Excerpt(string(c.Body), 200),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printLookupTable(page controller.Page, res controller.Results) {
	fmt.Printf("%d: %s\n", page.ID, page.Title)
	fmt.Printf("Query: %s\n\n", res.Query)

	for _, msg := range res.Messages() {
		fmt.Printf("  %s\n", markup.StripHTML(string(msg)))
	}
	cards := res.Cards()
	if len(cards) == 0 {
		return
	}
	fmt.Printf("Found %d candidates:\n\n", len(cards))
	for i, c := range cards {
		fmt.Printf("  %d. [%d] %s\n", i+1, c.ID, c.Title)
		fmt.Printf("     %s (score %d, %d answers)\n", c.Link, c.Score, c.AnswerCount)
		fmt.Printf("     %s\n\n", markup.Excerpt(string(c.Body), 120))
	}
}
