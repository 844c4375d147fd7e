package messenger_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/messenger"
	"github.com/dmitrymomot/messenger/core/config"
	"github.com/dmitrymomot/messenger/core/logger"
	"github.com/dmitrymomot/messenger/core/loop"
)

type OrderPlaced struct {
	ID    string
	Total int
}

type Inbox struct {
	name  string
	count int
}

func (i *Inbox) OnOrderPlaced(_ context.Context, msg OrderPlaced) error {
	i.count++
	fmt.Printf("%s received %s (%d)\n", i.name, msg.ID, msg.Total)
	return nil
}

func Example() {
	m := messenger.New()
	inbox := &Inbox{name: "orders"}

	if _, err := messenger.RegisterMethod(m, inbox, inbox, (*Inbox).OnOrderPlaced); err != nil {
		log.Fatal(err)
	}

	if err := messenger.Send(context.Background(), m, OrderPlaced{ID: "A-1", Total: 42}); err != nil {
		log.Fatal(err)
	}

	m.Unregister(inbox)
	_ = messenger.Send(context.Background(), m, OrderPlaced{ID: "A-2"})

	fmt.Println("handled:", inbox.count)
	runtime.KeepAlive(inbox)
	// Output:
	// orders received A-1 (42)
	// handled: 1
}

func Example_tokens() {
	m := messenger.New()
	left := &Inbox{name: "left"}
	right := &Inbox{name: "right"}

	_, _ = messenger.RegisterMethod(m, left, left, (*Inbox).OnOrderPlaced, messenger.WithToken("left"))
	_, _ = messenger.RegisterMethod(m, right, right, (*Inbox).OnOrderPlaced, messenger.WithToken("right"))

	ctx := context.Background()
	_ = messenger.Send(ctx, m, OrderPlaced{ID: "B-1"}, messenger.WithToken("right"))
	_ = messenger.Send(ctx, m, OrderPlaced{ID: "B-2"})

	runtime.KeepAlive(left)
	runtime.KeepAlive(right)
	// Output:
	// right received B-1 (0)
}

// Example_designatedThread runs deliveries and cleanup on a loop managed by an errgroup.
func Example_designatedThread() {
	var cfg messenger.Config
	if err := config.Load(&cfg); err != nil {
		log.Fatal(err)
	}

	var loopCfg loop.Config
	if err := config.Load(&loopCfg); err != nil {
		log.Fatal(err)
	}

	appLog := logger.New(logger.WithProduction("example"), logger.WithOutput(io.Discard))
	ui := loop.New(loop.WithConfig(loopCfg), loop.WithLogger(appLog))

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(ui.Run(gctx))

	m := messenger.New(
		messenger.WithConfig(cfg),
		messenger.WithLogger(appLog),
		messenger.WithDispatcher(ui),
		messenger.WithIdleScheduler(ui),
	)

	view := &Inbox{name: "view"}
	_, _ = messenger.Register(m, view, func(ctx context.Context, msg OrderPlaced) error {
		fmt.Println("on loop:", ui.OnLoop(ctx), msg.ID)
		return nil
	})

	if err := messenger.SendOnDesignatedThread(ctx, m, OrderPlaced{ID: "C-1"}).Await(); err != nil {
		fmt.Println("send failed:", err)
	}

	cancel()
	if err := g.Wait(); err != nil {
		fmt.Println("loop failed:", err)
	}
	runtime.KeepAlive(view)
	// Output:
	// on loop: true C-1
}
