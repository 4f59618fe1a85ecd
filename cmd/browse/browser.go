package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agrimart/storefront/internal/cart"
	"github.com/agrimart/storefront/internal/model"
	"github.com/agrimart/storefront/internal/session"
	"github.com/agrimart/storefront/pkg/errmsg"
	"github.com/agrimart/storefront/pkg/paging"
	"github.com/agrimart/storefront/pkg/render"
)

type browserDeps struct {
	Fetcher  *paging.Fetcher[model.Item]
	Cart     *cart.Store
	Session  *session.Store
	ItemTmpl *render.Renderer
	CartTmpl *render.Renderer
	Lang     errmsg.Language
	Timeout  time.Duration
	In       io.Reader
	Out      io.Writer
}

// browser is the interactive loop. It owns the cart and session stores
// for the lifetime of the command.
type browser struct {
	browserDeps
	changed chan struct{}
	shown   int
}

func newBrowser(deps browserDeps) *browser {
	if deps.Timeout <= 0 {
		deps.Timeout = 30 * time.Second
	}
	b := &browser{
		browserDeps: deps,
		changed:     make(chan struct{}, 1),
	}
	deps.Fetcher.OnChange(func(paging.State[model.Item]) {
		select {
		case b.changed <- struct{}{}:
		default:
		}
	})
	deps.Session.Subscribe(func(s session.Session) {
		if s.Status == session.StatusExpired {
			fmt.Fprintln(b.Out, errmsg.Message(b.Lang, errmsg.KeyUnauthorized))
		}
	})
	return b
}

// Run loads the first page and then serves commands until quit or EOF.
func (b *browser) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.Fetcher.LoadInitial()
	b.show(b.settle(ctx))

	scanner := bufio.NewScanner(b.In)
	b.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			b.prompt()
			continue
		}
		if quit := b.exec(ctx, line); quit {
			return nil
		}
		b.prompt()
	}
	return scanner.Err()
}

func (b *browser) prompt() {
	fmt.Fprint(b.Out, "> ")
}

func (b *browser) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "more", "m":
		b.more(ctx)
	case "filter", "f":
		fs := b.Fetcher.State().Filters
		for _, arg := range args {
			k, v, ok := strings.Cut(arg, "=")
			if !ok || k == "" {
				fmt.Fprintf(b.Out, "invalid filter %q, expected key=value\n", arg)
				return false
			}
			fs = fs.With(k, v)
		}
		b.reload(ctx, fs)
	case "search", "s":
		b.reload(ctx, b.Fetcher.State().Filters.With("search", strings.Join(args, " ")))
	case "clear":
		b.reload(ctx, paging.FilterSet{})
	case "add", "a":
		b.add(args)
	case "remove", "rm":
		if len(args) != 1 {
			fmt.Fprintln(b.Out, "usage: remove <id>")
			return false
		}
		b.dispatch(cart.RemoveItem{ProductID: args[0]})
	case "qty":
		n, err := quantityArg(args, 1)
		if err != nil || len(args) != 2 {
			fmt.Fprintln(b.Out, "usage: qty <id> <n>")
			return false
		}
		b.dispatch(cart.SetQuantity{ProductID: args[0], Quantity: n})
	case "cart", "c":
		b.printCart()
	case "login":
		if len(args) != 1 {
			fmt.Fprintln(b.Out, "usage: login <token>")
			return false
		}
		if err := b.Session.Dispatch(session.Login{Token: args[0]}); err != nil {
			fmt.Fprintf(b.Out, "login failed: %v\n", err)
			return false
		}
		fmt.Fprintln(b.Out, "signed in")
	case "logout":
		_ = b.Session.Dispatch(session.Logout{})
		fmt.Fprintln(b.Out, "signed out")
	case "help", "?":
		fmt.Fprintln(b.Out, "commands: more, filter k=v, search <text>, clear, add <id> [qty], remove <id>, qty <id> <n>, cart, login <token>, logout, quit")
	default:
		fmt.Fprintf(b.Out, "unknown command %q, type help\n", cmd)
	}
	return false
}

// more scrolls the sentinel into view, waits for the page and scrolls it
// back out.
func (b *browser) more(ctx context.Context) {
	sentinel := b.Fetcher.Sentinel()
	started := sentinel.SetVisible(true)
	st := b.settle(ctx)
	sentinel.SetVisible(false)

	if !started && st.Err == nil {
		fmt.Fprintln(b.Out, "no more items")
		return
	}
	b.show(st)
}

func (b *browser) reload(ctx context.Context, fs paging.FilterSet) {
	if fs.Equal(b.Fetcher.State().Filters) {
		fmt.Fprintln(b.Out, "filters unchanged")
		return
	}
	b.Fetcher.SetFilters(fs)
	b.shown = 0
	st := b.settle(ctx)
	if key := st.Filters.Key(); key != "" {
		fmt.Fprintf(b.Out, "-- filters: %s\n", key)
	} else {
		fmt.Fprintln(b.Out, "-- no filters")
	}
	b.show(st)
}

func (b *browser) add(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(b.Out, "usage: add <id> [qty]")
		return
	}
	qty := 1
	if len(args) == 2 {
		n, err := quantityArg(args, 1)
		if err != nil {
			fmt.Fprintln(b.Out, "usage: add <id> [qty]")
			return
		}
		qty = n
	}
	for _, item := range b.Fetcher.State().Items {
		if item.ID == args[0] {
			b.dispatch(cart.Add(item, qty))
			return
		}
	}
	fmt.Fprintf(b.Out, "item %s is not in the list\n", args[0])
}

func (b *browser) dispatch(a cart.Action) {
	if err := b.Cart.Dispatch(a); err != nil {
		fmt.Fprintf(b.Out, "cart: %v\n", err)
		return
	}
	c := b.Cart.Cart()
	fmt.Fprintf(b.Out, "cart: %d item(s), total Rs %s\n", c.Count(), c.Total().StringFixed(2))
}

func (b *browser) printCart() {
	if err := b.CartTmpl.Execute(b.Out, b.Cart.Cart()); err != nil {
		fmt.Fprintf(b.Out, "render cart: %v\n", err)
	}
}

// settle waits until no fetch is outstanding and no reload is armed.
func (b *browser) settle(ctx context.Context) paging.State[model.Item] {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()
	for {
		st := b.Fetcher.State()
		if !st.Status.Loading() && !st.Pending {
			return st
		}
		select {
		case <-b.changed:
		case <-ctx.Done():
			return b.Fetcher.State()
		}
	}
}

// show prints the items not printed yet, then the list status.
func (b *browser) show(st paging.State[model.Item]) {
	if b.shown > len(st.Items) {
		b.shown = 0
	}
	for _, item := range st.Items[b.shown:] {
		line, err := b.ItemTmpl.String(item)
		if err != nil {
			fmt.Fprintf(b.Out, "render item: %v\n", err)
			continue
		}
		fmt.Fprintln(b.Out, line)
	}
	b.shown = len(st.Items)

	switch {
	case st.Status == paging.StatusError:
		fmt.Fprintln(b.Out, errmsg.Resolve(st.Err, b.Lang, ""))
	case st.Status.Loading():
		fmt.Fprintln(b.Out, "still loading...")
	case len(st.Items) == 0:
		fmt.Fprintln(b.Out, "no items")
	case st.HasMore:
		fmt.Fprintf(b.Out, "(%d shown, type more for the next page)\n", len(st.Items))
	default:
		fmt.Fprintf(b.Out, "(%d shown, end of list)\n", len(st.Items))
	}
}

func quantityArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing quantity")
	}
	return strconv.Atoi(args[i])
}
