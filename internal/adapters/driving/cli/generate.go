package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

var (
	genTopic      string
	genTitle      string
	genAngle      string
	genAudience   string
	genTone       string
	genAuthor     string
	genCategory   string
	genTags       []string
	genBrief      string
	genSubtasks   int
	genQueries    int
	genAlpha      float64
	genTopK       int
	genPool       int
	genDecayDays  int
	genProfanity  string
	genFrequency  string
	genPerSection int
	genGrade      string
	genCitations  string
	genOutput     string
	genSocial     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a grounded blog post",
	Long: `Runs the full pipeline: plan sections, build retrieval queries, gather
evidence from the indexed archive with hybrid search, draft each section, and
consolidate into a single markdown post with front matter.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "subject the post analyses (required)")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "post headline (defaults to the topic)")
	generateCmd.Flags().StringVar(&genAngle, "angle", "", "argumentative angle")
	generateCmd.Flags().StringVar(&genAudience, "audience", "", "target reader")
	generateCmd.Flags().StringVar(&genTone, "tone", "", "register of the prose")
	generateCmd.Flags().StringVar(&genAuthor, "author", "", "front-matter byline")
	generateCmd.Flags().StringVar(&genCategory, "category", "", "front-matter category")
	generateCmd.Flags().StringSliceVar(&genTags, "tags", nil, "front-matter tags")
	generateCmd.Flags().StringVar(&genBrief, "brief", "", "extra guidance appended to the assignment")
	generateCmd.Flags().IntVar(&genSubtasks, "subtasks", 0, "number of planned sections (0 = configured default)")
	generateCmd.Flags().IntVar(&genQueries, "queries", 0, "retrieval queries per section (0 = configured default)")
	generateCmd.Flags().Float64Var(&genAlpha, "alpha", 0, "lexical weight in fused scoring (an explicit 0 is semantic-only)")
	generateCmd.Flags().IntVar(&genTopK, "top-k", 0, "evidence snippets per section (0 = configured default)")
	generateCmd.Flags().IntVar(&genPool, "lexical-pool", 0, "FTS candidate pool size (0 = configured default)")
	generateCmd.Flags().IntVar(&genDecayDays, "decay-days", 0, "recency decay window in days (0 = disabled)")
	generateCmd.Flags().StringVar(&genProfanity, "profanity", "", "profanity level: clean, mild, spicy, bleeped")
	generateCmd.Flags().StringVar(&genFrequency, "frequency", "", "profanity frequency: scarce, moderate, heavy, custom")
	generateCmd.Flags().IntVar(&genPerSection, "per-section", 0, "profanities per section when frequency is custom")
	generateCmd.Flags().StringVar(&genGrade, "grade-level", "", "readability grade (2-18) or 'auto'")
	generateCmd.Flags().StringVar(&genCitations, "citations", "", "evidence citation style: inline, none")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output file (default <slug>.md)")
	generateCmd.Flags().BoolVar(&genSocial, "social", false, "also produce a short social teaser")
	_ = generateCmd.MarkFlagRequired("topic") //nolint:errcheck // flag name is static

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if err := initPipeline(); err != nil {
		return err
	}
	if generationService == nil {
		return errors.New("generation service not configured")
	}

	task, err := buildTask(cmd)
	if err != nil {
		return err
	}

	result, err := generationService.Generate(context.Background(), task)
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			return fmt.Errorf("generation failed during %s: %w", stageErr.Stage, err)
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	outPath := genOutput
	if outPath == "" {
		outPath = domain.Slugify(task.Title) + ".md"
	}
	if err := os.WriteFile(outPath, []byte(result.Markdown), 0o644); err != nil {
		return fmt.Errorf("writing post: %w", err)
	}

	cmd.Printf("Wrote %s (%d sections)\n", outPath, len(result.Subtasks))
	if result.Social != "" {
		cmd.Println()
		cmd.Println("Social teaser:")
		cmd.Println(result.Social)
	}
	return nil
}

// buildTask assembles the blog task from flags over configured defaults.
func buildTask(cmd *cobra.Command) (domain.BlogTask, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return domain.BlogTask{}, fmt.Errorf("loading settings: %w", err)
	}

	title := genTitle
	if strings.TrimSpace(title) == "" {
		title = genTopic
	}

	retrieval := settings.Retrieval
	if cmd.Flags().Changed("alpha") {
		retrieval.Alpha = flagAlpha(genAlpha)
	}
	if genTopK > 0 {
		retrieval.TopK = genTopK
	}
	if genPool > 0 {
		retrieval.LexicalPool = genPool
	}
	if genDecayDays > 0 {
		retrieval.TimeDecayDays = genDecayDays
	}

	style := domain.StyleOptions{
		Profanity:  domain.ProfanityLevel(genProfanity),
		Frequency:  domain.ProfanityFrequency(genFrequency),
		PerSection: genPerSection,
		GradeLevel: genGrade,
		Citations:  domain.CitationStyle(genCitations),
	}
	if style.Profanity != "" && !style.Profanity.IsValid() {
		return domain.BlogTask{}, fmt.Errorf("invalid profanity level: %s", genProfanity)
	}
	if style.Frequency != "" && !style.Frequency.IsValid() {
		return domain.BlogTask{}, fmt.Errorf("invalid profanity frequency: %s", genFrequency)
	}

	subtasks := genSubtasks
	if subtasks <= 0 {
		subtasks = settings.Generation.NumSubtasks
	}
	queries := genQueries
	if queries <= 0 {
		queries = settings.Generation.QueriesPerSubtask
	}

	return domain.BlogTask{
		Title:             title,
		Topic:             genTopic,
		Angle:             genAngle,
		Audience:          genAudience,
		Tone:              genTone,
		Author:            genAuthor,
		Category:          genCategory,
		Tags:              genTags,
		Brief:             genBrief,
		NumSubtasks:       subtasks,
		QueriesPerSubtask: queries,
		Retrieval:         retrieval,
		Style:             style,
		IncludeSocial:     genSocial,
	}, nil
}
