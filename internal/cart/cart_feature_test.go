package cart_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/vikenamera/CraftVersee/internal/cart"
	"github.com/vikenamera/CraftVersee/internal/domain"
	"github.com/vikenamera/CraftVersee/internal/kv"
)

var errWritesRejected = errors.New("writes rejected")

type rejectingStore struct {
	kv.Store
}

func (rejectingStore) Set(context.Context, string, string) error { return errWritesRejected }

type cartFeatureContext struct {
	backend  kv.Store
	store    *cart.Store
	cart     domain.Cart
	loadErr  error
	writeErr error
}

func (c *cartFeatureContext) reset() {
	c.backend = kv.NewMemoryStore()
	c.store = cart.NewStore(c.backend, nil)
	c.cart = domain.Cart{}
	c.loadErr = nil
	c.writeErr = nil
}

func (c *cartFeatureContext) anEmptyCart() error {
	c.cart = domain.Cart{}
	return nil
}

func (c *cartFeatureContext) theStoredCartRecordIs(raw string) error {
	return c.backend.Set(context.Background(), cart.SlotKey, raw)
}

func (c *cartFeatureContext) theStoreRejectsWrites() error {
	c.backend = rejectingStore{Store: c.backend}
	c.store = cart.NewStore(c.backend, nil)
	return nil
}

func (c *cartFeatureContext) iAddOfPricedWithImage(quantity int, title string, price int, image string) error {
	c.cart = cart.AddOrMerge(c.cart, cart.Candidate{Title: title, Price: price, ImageSrc: image, QuantityToAdd: quantity})
	c.writeErr = c.store.Persist(context.Background(), c.cart)
	return nil
}

func (c *cartFeatureContext) iLoadTheCart() error {
	c.cart, c.loadErr = c.store.Load(context.Background())
	return nil
}

func (c *cartFeatureContext) theCartHasLineItems(count int) error {
	if got := len(c.cart.Items); got != count {
		return fmt.Errorf("expected %d line items, got %d", count, got)
	}
	return nil
}

func (c *cartFeatureContext) theTotalQuantityIs(total int) error {
	if got := cart.TotalQuantity(c.cart); got != total {
		return fmt.Errorf("expected total quantity %d, got %d", total, got)
	}
	return nil
}

func (c *cartFeatureContext) theLoadReportedACorruptRecord() error {
	if !errors.Is(c.loadErr, cart.ErrCorruptCart) {
		return fmt.Errorf("expected corrupt record error, got %v", c.loadErr)
	}
	return nil
}

func (c *cartFeatureContext) theLastWriteFailed() error {
	if !errors.Is(c.writeErr, errWritesRejected) {
		return fmt.Errorf("expected rejected write, got %v", c.writeErr)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartFeatureContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the stored cart record is "([^"]*)"$`, tc.theStoredCartRecordIs)
	ctx.Step(`^the store rejects writes$`, tc.theStoreRejectsWrites)

	// When steps
	ctx.Step(`^I add (-?\d+) of "([^"]*)" priced (\d+) with image "([^"]*)"$`, tc.iAddOfPricedWithImage)
	ctx.Step(`^I load the cart$`, tc.iLoadTheCart)

	// Then steps
	ctx.Step(`^the cart has (\d+) line items?$`, tc.theCartHasLineItems)
	ctx.Step(`^the total quantity is (\d+)$`, tc.theTotalQuantityIs)
	ctx.Step(`^the load reported a corrupt record$`, tc.theLoadReportedACorruptRecord)
	ctx.Step(`^the last write failed$`, tc.theLastWriteFailed)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
