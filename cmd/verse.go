package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/naflume/internal/quran"
)

var verseTranslations []string

var verseCmd = &cobra.Command{
	Use:   "verse [surah:ayah | today | random]",
	Short: "Print a Quran verse from the verse API",
	Long: `Fetches a verse with its translations. Without an argument, prints the
verse of the day.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		ctx := context.Background()
		gateway, release, err := newGateway(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer release()

		arg := "today"
		if len(args) == 1 {
			arg = args[0]
		}

		var v *quran.Verse
		switch arg {
		case "today":
			v = gateway.VerseOfTheDay(ctx)
		case "random":
			v = gateway.RandomVerse(ctx, verseTranslations)
		default:
			surah, ayah, err := parseVerseKey(arg)
			if err != nil {
				return err
			}
			v = gateway.Verse(ctx, surah, ayah, verseTranslations)
		}
		if v == nil {
			return fmt.Errorf("verse %s is unavailable", arg)
		}

		printVerse(*v)
		return nil
	},
}

var surahsCmd = &cobra.Command{
	Use:   "surahs",
	Short: "List the chapters of the Quran",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		ctx := context.Background()
		gateway, release, err := newGateway(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer release()

		surahs := gateway.Surahs(ctx)
		if len(surahs) == 0 {
			return fmt.Errorf("surah list is unavailable")
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tNAME\tMEANING\tAYAHS\tREVELATION")
		for _, s := range surahs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", s.Number, s.EnglishName, s.EnglishNameTranslation, s.NumberOfAyahs, s.RevelationType)
		}
		return tw.Flush()
	},
}

// parseVerseKey parses "2:255" into its coordinates.
func parseVerseKey(s string) (surah, ayah int, err error) {
	a, b, ok := strings.Cut(s, ":")
	if ok {
		surah, err = strconv.Atoi(a)
		if err == nil {
			ayah, err = strconv.Atoi(b)
		}
	}
	if !ok || err != nil || surah < 1 || surah > quran.TotalSurahs || ayah < 1 {
		return 0, 0, fmt.Errorf("invalid verse %q: want surah:ayah, e.g. 2:255", s)
	}
	return surah, ayah, nil
}

func printVerse(v quran.Verse) {
	name := v.SurahEnglishName
	if name == "" {
		name = "Quran"
	}
	fmt.Printf("%s %s\n\n%s\n", name, v.Key(), v.Text)

	editions := make([]string, 0, len(v.Translations))
	for ed := range v.Translations {
		editions = append(editions, ed)
	}
	sort.Strings(editions)
	for _, ed := range editions {
		fmt.Printf("\n[%s]\n%s\n", ed, v.Translations[ed])
	}
}

func init() {
	verseCmd.Flags().StringSliceVar(&verseTranslations, "translations", nil, "translation editions (default: quran.translations)")
	rootCmd.AddCommand(verseCmd)
	rootCmd.AddCommand(surahsCmd)
}
