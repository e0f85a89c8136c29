package main

import (
	"aniverse/catalog"
	"aniverse/config"
	"aniverse/favorites"
	"aniverse/logging"
	"aniverse/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNotInList = errors.New("not in list")

var (
	cfg     *config.Config
	logger  *zap.Logger
	kv      storage.KeyValueStore
	store   *favorites.Store
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "favorites",
	Short:         "Inspect and edit the saved-for-later list",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level)
		if err != nil {
			return err
		}

		kv, err = storage.Open(cmd.Context(), cfg.Storage, logger)
		if err != nil {
			return err
		}

		store, err = favorites.Open(cmd.Context(), kv, favorites.Options{
			Key:    cfg.FavoritesKey,
			Strict: cfg.Strict,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		if err := store.LoadErr(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: starting with an empty list: %v\n", err)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "ls",
	Short: "List favorites",
	RunE: func(cmd *cobra.Command, args []string) error {
		genre, _ := cmd.Flags().GetString("genre")
		query, _ := cmd.Flags().GetString("query")
		top, _ := cmd.Flags().GetInt("top")

		titles := catalog.Search(store.List(), catalog.Query{Text: query, Genre: genre})
		if top > 0 {
			titles = catalog.TopRated(titles, top)
		}

		if len(titles) == 0 {
			fmt.Println("Your list is empty")
			return nil
		}
		for i, t := range titles {
			video := ""
			if t.HasVideo() {
				video = " [trailer]"
			}
			fmt.Printf("%2d. %-12s %s (%s %.1f)%s\n", i+1, t.ID, t.Title, t.Ranking.Name, t.Ranking.Value, video)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <imdb_id> <title...>",
	Short: "Add a title, or a JSON record with --json",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("json")

		var title catalog.Title
		switch {
		case raw != "":
			if err := json.Unmarshal([]byte(raw), &title); err != nil {
				return fmt.Errorf("invalid --json: %w", err)
			}
		case len(args) >= 2:
			title = catalog.Title{ID: args[0], Title: strings.Join(args[1:], " ")}
			title.YouTubeID, _ = cmd.Flags().GetString("youtube")
			rank, _ := cmd.Flags().GetFloat64("rank")
			title.Ranking = catalog.Ranking{Value: rank, Name: strconv.FormatFloat(rank, 'f', 1, 64)}
			genres, _ := cmd.Flags().GetStringSlice("genre")
			for i, g := range genres {
				title.Genres = append(title.Genres, catalog.Genre{ID: i + 1, Name: g})
			}
		default:
			return fmt.Errorf("usage: favorites add <imdb_id> <title...> or --json '<record>'")
		}

		added, err := store.Add(cmd.Context(), title)
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("%s is already in your list\n", title.Title)
			return nil
		}
		fmt.Printf("%s has been added to your list\n", title.Title)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "rm <imdb_id>",
	Short: "Remove a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := store.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("%s is not in your list\n", args[0])
			return nil
		}
		fmt.Println("Removed from list")
		return nil
	},
}

var hasCmd = &cobra.Command{
	Use:   "has <imdb_id>",
	Short: "Exit 0 when the title is in the list, 1 otherwise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if store.Contains(args[0]) {
			fmt.Println("In My List")
			return nil
		}
		fmt.Println("Not in My List")
		return errNotInList
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a summary of the list",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := store.List()
		fmt.Printf("Key:     %s (%s)\n", store.Key(), cfg.Storage.Backend)
		fmt.Printf("Total:   %d\n", len(list))

		names := make([]string, 0)
		for _, g := range catalog.Genres(list) {
			names = append(names, fmt.Sprintf("%s (%d)", g.Name, len(catalog.FilterByGenre(list, g.Name))))
		}
		if len(names) == 0 {
			names = append(names, "None")
		}
		fmt.Printf("Genres:  %s\n", strings.Join(names, ", "))

		sp, ok := storage.StatsOf(kv)
		if !ok {
			return nil
		}
		stats, err := sp.GetStats()
		if err != nil {
			return err
		}
		keys, err := sp.Keys(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Stored:  %d keys, %d bytes\n", stats["keys"], stats["bytes"])
		fmt.Printf("Keys:    %s\n", strings.Join(keys, ", "))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	listCmd.Flags().String("genre", "", "Only titles tagged with this genre")
	listCmd.Flags().StringP("query", "q", "", "Only titles whose name contains this text")
	listCmd.Flags().Int("top", 0, "Show the N highest ranked titles")

	addCmd.Flags().String("json", "", "Full title record as JSON")
	addCmd.Flags().String("youtube", "", "Trailer video id")
	addCmd.Flags().Float64("rank", 0, "Ranking value")
	addCmd.Flags().StringSlice("genre", nil, "Genre names")

	rootCmd.AddCommand(listCmd, addCmd, removeCmd, hasCmd, statsCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())

	if kv != nil {
		_ = kv.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}

	if err != nil {
		if !errors.Is(err, errNotInList) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
