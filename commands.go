package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/soocke/food-helper-go/app"
	"github.com/soocke/food-helper-go/config"
	"github.com/soocke/food-helper-go/domain/detect"
	"github.com/soocke/food-helper-go/domain/templates"
	"github.com/soocke/food-helper-go/domain/vision"
)

const appTitle = "Food Helper"

var (
	flagConfig string
	flagEnv    string
	flagDebug  bool

	rootCmd = &cobra.Command{
		Use:           "foodhelper",
		Short:         "Detect food buffs and keep them up",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGUI,
	}

	diffCmd = &cobra.Command{
		Use:   "diff <before.png> <after.png>",
		Short: "Compare two screenshots and write the changed regions",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}

	autoEatCmd = &cobra.Command{
		Use:   "autoeat",
		Short: "Run the auto-eat loop without the window until interrupted",
		RunE:  runAutoEat,
	}

	templatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "Inspect and manage saved templates",
	}

	templatesListCmd = &cobra.Command{
		Use:   "list [food|effects]",
		Short: "List templates",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTemplatesList,
	}

	templatesBlacklistCmd = &cobra.Command{
		Use:   "blacklist <food|effects> <name>",
		Short: "Move a template to the blacklist",
		Args:  cobra.ExactArgs(2),
		RunE:  runTemplatesBlacklist,
	}

	regionsCmd = &cobra.Command{
		Use:   "regions",
		Short: "Inspect saved regions",
	}

	regionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved regions",
		Args:  cobra.NoArgs,
		RunE:  runRegionsList,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", config.DefaultPath(), "config file")
	pf.StringVar(&flagEnv, "env", ".env", "dotenv file with FOODHELPER_* overrides")
	pf.BoolVar(&flagDebug, "debug", false, "debug logging and runtime stats")

	diffCmd.Flags().String("out", "", "output directory (default: <data_dir>/templates/temp/diff)")
	autoEatCmd.Flags().String("key", "", "key to press when the buff is gone")
	autoEatCmd.Flags().String("mode", "", "probe mode: brightness or template")
	autoEatCmd.Flags().Duration("interval", 0, "probe interval")
	templatesListCmd.Flags().Bool("blacklisted", false, "list blacklisted templates instead")

	templatesCmd.AddCommand(templatesListCmd, templatesBlacklistCmd)
	regionsCmd.AddCommand(regionsListCmd)
	rootCmd.AddCommand(diffCmd, autoEatCmd, templatesCmd, regionsCmd)
}

// setup loads the config, applies env and flag overrides and opens the
// logger. The returned closer flushes the log file.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, loadErr := config.Load(flagConfig)
	envErr := config.ApplyEnv(cfg, flagEnv)
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flagDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger, closer := NewLogger(level, cfg.LogDir)
	if loadErr != nil {
		logger.Warn("config load failed, using defaults", "path", flagConfig, "error", loadErr)
	}
	if envErr != nil {
		logger.Warn("env overrides skipped", "error", envErr)
	}
	return cfg, logger, closer, nil
}

func runGUI(cmd *cobra.Command, _ []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	a, err := app.New(appTitle, 960, 720, cfg, flagConfig, logger)
	if err != nil {
		return err
	}
	a.Start()
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.Paths().Diff
	}
	d := vision.NewDefaultDiffer(cfg.DiffThreshold, cfg.MinRegionArea)
	res, art, err := detect.CompareFiles(logger, d, args[0], args[1], out)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if res.Empty() {
		fmt.Fprintln(w, "no changes")
		return nil
	}
	fmt.Fprintf(w, "%d change(s), visual: %s\n", len(res.Regions), art.Visual)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IDX\tX\tY\tW\tH\tAREA\tFILE")
	for i, r := range res.Regions {
		file := ""
		if i < len(art.Changes) {
			file = art.Changes[i]
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n", i, r.X, r.Y, r.Width, r.Height, r.Area, file)
	}
	return tw.Flush()
}

func runAutoEat(cmd *cobra.Command, _ []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	if key, _ := cmd.Flags().GetString("key"); key != "" {
		cfg.EatKey = key
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		cfg.ProbeMode = mode
	}
	if iv, _ := cmd.Flags().GetDuration("interval"); iv > 0 {
		cfg.ProbeIntervalMs = int(iv / time.Millisecond)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	svc, err := app.BuildServices(cfg, logger)
	if err != nil {
		return err
	}
	target, err := svc.Resolver.Resolve()
	if err != nil {
		return err
	}
	eater := svc.NewEater()
	eater.SetTarget(target)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()
	if err := eater.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (%s), press Ctrl+C to stop\n", target.Name, cfg.ProbeMode)
	<-ctx.Done()
	eater.Stop()
	st := eater.Status()
	fmt.Fprintf(cmd.OutOrStdout(), "stopped: %d eat(s), active %s, started %s\n",
		st.Eats, eater.ActiveTime().Round(time.Second), humanize.Time(start))
	return nil
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	svc, err := templates.NewService(cfg.Paths(), cfg.TemplateCacheSize, logger)
	if err != nil {
		return err
	}
	cats := templates.Categories
	if len(args) == 1 {
		cat, err := templates.ParseCategory(args[0])
		if err != nil {
			return err
		}
		cats = []templates.Category{cat}
	}
	blacklisted, _ := cmd.Flags().GetBool("blacklisted")
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tNAME\tLABEL\tRECT\tFILE")
	for _, cat := range cats {
		list := svc.List(cat)
		if blacklisted {
			list = svc.Blacklisted(cat)
		}
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", cat, t.Name, t.Label, t.Rect(), t.File)
		}
	}
	return tw.Flush()
}

func runTemplatesBlacklist(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	cat, err := templates.ParseCategory(args[0])
	if err != nil {
		return err
	}
	svc, err := templates.NewService(cfg.Paths(), cfg.TemplateCacheSize, logger)
	if err != nil {
		return err
	}
	if err := svc.Blacklist(cat, templates.SafeName(args[1])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "blacklisted %s/%s\n", cat, templates.SafeName(args[1]))
	return nil
}

func runRegionsList(cmd *cobra.Command, _ []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()
	svc, err := app.BuildServices(cfg, logger)
	if err != nil {
		return err
	}
	all := svc.Regions.All()
	if len(all) == 0 {
		return errors.New("no regions saved")
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tX\tY\tW\tH")
	for _, r := range all {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", r.Label, r.X, r.Y, r.Width, r.Height)
	}
	return tw.Flush()
}
