package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	configs "github.com/agrimart/storefront/config"
	"github.com/agrimart/storefront/internal/cart"
	"github.com/agrimart/storefront/internal/constants"
	"github.com/agrimart/storefront/internal/model"
	"github.com/agrimart/storefront/internal/session"
	"github.com/agrimart/storefront/pkg/database"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/agrimart/storefront/pkg/paging"
	"github.com/agrimart/storefront/pkg/render"
	"github.com/agrimart/storefront/pkg/upstream"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	apiURL     string
	search     string
	category   string
	filterArgs []string
	lang       string
	pageSize   int
	format     string
	token      string
	debounce   time.Duration
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "browse <resource>",
	Short: "Browse the agrimart catalog from the terminal",
	Long: `Browse a marketplace collection page by page.

Commands at the prompt:
  more                 load the next page
  filter k=v [k=v...]  change filters (debounced, ALL or empty clears a key)
  search <text>        shortcut for filter search=<text>
  clear                drop every filter
  add <id> [qty]       add a listed item to the cart
  remove <id>          remove an item from the cart
  qty <id> <n>         change the quantity of a cart line
  cart                 show the cart
  login <token>        sign in with a bearer token
  logout               sign out
  quit                 leave`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.Flags().StringVar(&apiURL, "api", "", "marketplace API base URL (default from UPSTREAM_BASE_URL)")
	rootCmd.Flags().StringVar(&search, "search", "", "initial search text")
	rootCmd.Flags().StringVar(&category, "category", "", "initial category filter")
	rootCmd.Flags().StringArrayVar(&filterArgs, "filter", nil, "initial filter as key=value (repeatable)")
	rootCmd.Flags().StringVar(&lang, "lang", "", "message language: en or ne")
	rootCmd.Flags().IntVar(&pageSize, "size", 0, "page size (default from FETCHER_PAGE_SIZE)")
	rootCmd.Flags().StringVar(&format, "format", render.DefaultItemFormat, "item template (text/template with sprig functions)")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("AGRIMART_TOKEN"), "bearer token to start signed in")
	rootCmd.Flags().DurationVar(&debounce, "debounce", 0, "filter debounce (default from FETCHER_DEBOUNCE)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log upstream traffic")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.Upstream.BaseURL = apiURL
	}
	if pageSize > 0 {
		cfg.Fetcher.PageSize = pageSize
	}
	if debounce > 0 {
		cfg.Fetcher.Debounce = debounce
	}
	if lang == "" {
		lang = cfg.App.DefaultLanguage
	}

	log := zap.NewNop()
	if verbose {
		cfg.App.Environment = constants.EnvDevelopment
		cfg.App.LogsPath = ""
		if err := logger.InitLogger(cfg); err != nil {
			return err
		}
		log = logger.GetLogger()
		defer logger.Sync()
	}

	filters, err := initialFilters()
	if err != nil {
		return err
	}

	itemTmpl, err := render.New("item", format)
	if err != nil {
		return err
	}
	cartTmpl, err := render.New("cart", render.DefaultCartFormat)
	if err != nil {
		return err
	}

	sessions := session.NewStore(log)
	if token != "" {
		if err := sessions.Dispatch(session.Login{Token: token}); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	client, err := upstream.New(upstream.Options{
		BaseURL:        cfg.Upstream.BaseURL,
		Token:          sessions,
		Logger:         log,
		OnUnauthorized: sessions.OnUnauthorized,
	})
	if err != nil {
		return err
	}
	defer client.Pool().Close()

	fetcher := paging.New[model.Item](upstream.Collection[model.Item](client, resourcePath(args[0])), paging.Config{
		PageSize: cfg.Fetcher.PageSize,
		Debounce: cfg.Fetcher.Debounce,
		Filters:  filters,
		Logger:   log,
	})
	defer fetcher.Close()

	b := newBrowser(browserDeps{
		Fetcher:  fetcher,
		Cart:     cart.NewStore(log),
		Session:  sessions,
		ItemTmpl: itemTmpl,
		CartTmpl: cartTmpl,
		Lang:     errmsg.ParseLanguage(lang),
		Timeout:  cfg.Upstream.Timeout + cfg.Fetcher.Debounce,
		In:       cmd.InOrStdin(),
		Out:      cmd.OutOrStdout(),
	})
	return b.Run(cmd.Context())
}

func initialFilters() (paging.FilterSet, error) {
	fs := paging.FilterSet{}
	for _, arg := range filterArgs {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --filter %q, expected key=value", arg)
		}
		fs[strings.TrimSpace(k)] = v
	}
	if search != "" {
		fs["search"] = search
	}
	if category != "" {
		fs["category"] = category
	}
	return fs.Normalize(), nil
}

// resourcePath maps a catalog slug to its marketplace path. Anything else
// is used as a path as given.
func resourcePath(resource string) string {
	for _, e := range database.DefaultEndpoints() {
		if e.Slug == resource {
			return e.UpstreamPath
		}
	}
	return "/" + strings.TrimLeft(resource, "/")
}
