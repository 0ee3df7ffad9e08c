//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk"
	stub "github.com/jsamuelsen/cardsdk/internal/adapters/http"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/handlers"
	"github.com/jsamuelsen/cardsdk/internal/platform/config"
)

const (
	stubClientID     = "stub-client"
	stubClientSecret = "stub-secret"
)

// sentinels maps the error names used in feature files.
var sentinels = map[string]error{
	"network":         cardsdk.ErrNetwork,
	"authentication":  cardsdk.ErrAuthentication,
	"authorization":   cardsdk.ErrAuthorization,
	"not found":       cardsdk.ErrNotFound,
	"validation":      cardsdk.ErrValidation,
	"rate limit":      cardsdk.ErrRateLimit,
	"server":          cardsdk.ErrServer,
	"api":             cardsdk.ErrAPI,
	"deserialization": cardsdk.ErrDeserialization,
}

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	baseURL string
	server  *httptest.Server
	client  *cardsdk.Client

	model cardsdk.Model
	list  []cardsdk.Model
	total int
	err   error
}

// start points the scenario at BASE_URL when set, otherwise at a fresh
// in-process stub so writes never leak between scenarios.
func (tc *testContext) start() {
	if url := os.Getenv("BASE_URL"); url != "" {
		tc.baseURL = strings.TrimSuffix(url, "/")
		return
	}

	tc.server = httptest.NewServer(stub.NewEngine(stub.RouterConfig{
		ServiceName: "catalog-stub-integration",
		Store:       fixtures.Seeded(),
		Tokens:      handlers.NewTokenIssuer(stubClientID, stubClientSecret, time.Hour),
		Scenarios:   handlers.NewScenarioHandler(nil),
		Timeout:     stub.DefaultRequestTimeout,
	}))
	tc.baseURL = tc.server.URL
}

// reset clears scenario state and stops the stub.
func (tc *testContext) reset() {
	if tc.server != nil {
		tc.server.Close()
	}

	*tc = testContext{}
}

func (tc *testContext) config(clientID, secret string) *cardsdk.Config {
	return &cardsdk.Config{
		API: config.APIConfig{
			BaseURL:        tc.baseURL + "/v1",
			ServiceName:    "card-catalog",
			DefaultPerPage: 2,
		},
		OAuth: config.OAuthConfig{
			Enabled:      true,
			TokenURL:     tc.baseURL + "/oauth/token",
			ClientID:     clientID,
			ClientSecret: secret,
		},
		Client: config.ClientConfig{
			Timeout: 10 * time.Second,
			Retry: config.RetryConfig{
				MaxAttempts:     1,
				InitialInterval: 10 * time.Millisecond,
				MaxInterval:     100 * time.Millisecond,
				Multiplier:      2,
			},
			CircuitBreaker: config.CircuitBreakerConfig{
				MaxFailures:   10,
				Timeout:       time.Second,
				HalfOpenLimit: 1,
			},
			Transport: config.TransportConfig{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &testContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		tc.start()

		return ctx, nil
	})

	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		tc.reset()

		return ctx, nil
	})

	ctx.Step(`^I am authenticated$`, tc.iAmAuthenticated)
	ctx.Step(`^I am authenticated as "([^"]*)" with secret "([^"]*)"$`, tc.iAmAuthenticatedAs)
	ctx.Step(`^I fetch (\S+) "([^"]*)"$`, tc.iFetch)
	ctx.Step(`^I fetch (\S+) "([^"]*)" including "([^"]*)"$`, tc.iFetchIncluding)
	ctx.Step(`^I fetch (\S+) with ids "([^"]*)"$`, tc.iFetchMany)
	ctx.Step(`^I list (\S+)$`, tc.iList)
	ctx.Step(`^I list (\S+) where (\w+) is "([^"]*)"$`, tc.iListWhere)
	ctx.Step(`^I list all (\S+)$`, tc.iListAll)
	ctx.Step(`^I create (?:a|an) (\S+) with:$`, tc.iCreate)
	ctx.Step(`^I update (\S+) "([^"]*)" with:$`, tc.iUpdate)
	ctx.Step(`^I delete (\S+) "([^"]*)"$`, tc.iDelete)
	ctx.Step(`^the error scenario (\d+) is requested$`, tc.theErrorScenarioIsRequested)

	ctx.Step(`^the call should succeed$`, tc.theCallShouldSucceed)
	ctx.Step(`^the result should have (\w+) "([^"]*)"$`, tc.theResultShouldHave)
	ctx.Step(`^the result should be of type "([^"]*)"$`, tc.theResultShouldBeOfType)
	ctx.Step(`^the "([^"]*)" relation should have (\d+) items?$`, tc.theRelationShouldHave)
	ctx.Step(`^the "([^"]*)" relation should have (\w+) "([^"]*)"$`, tc.theRelationAttributeShouldBe)
	ctx.Step(`^I should get (\d+) results?$`, tc.iShouldGetResults)
	ctx.Step(`^the total should be (\d+)$`, tc.theTotalShouldBe)
	ctx.Step(`^the results should have ids "([^"]*)"$`, tc.theResultsShouldHaveIDs)
	ctx.Step(`^the call should fail with (?:a|an) (.+) error$`, tc.theCallShouldFailWith)
	ctx.Step(`^the error status should be (\d+)$`, tc.theErrorStatusShouldBe)
	ctx.Step(`^the error should report "([^"]*)" for field "([^"]*)"$`, tc.theErrorShouldReportForField)
	ctx.Step(`^the error should ask to retry after (\d+) seconds?$`, tc.theErrorShouldAskToRetryAfter)
}

func (tc *testContext) iAmAuthenticated() error {
	return tc.iAmAuthenticatedAs(stubClientID, stubClientSecret)
}

func (tc *testContext) iAmAuthenticatedAs(clientID, secret string) error {
	client, err := cardsdk.New(context.Background(), tc.config(clientID, secret),
		cardsdk.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	tc.client = client

	return nil
}

func (tc *testContext) iFetch(typeName, id string) error {
	tc.model, tc.err = tc.client.Get(context.Background(), typeName, id)
	return nil
}

func (tc *testContext) iFetchIncluding(typeName, id, include string) error {
	tc.model, tc.err = tc.client.Get(context.Background(), typeName, id, strings.Split(include, ",")...)
	return nil
}

func (tc *testContext) iFetchMany(typeName, ids string) error {
	tc.list, tc.err = tc.client.GetMany(context.Background(), typeName, strings.Split(ids, ","))
	tc.total = len(tc.list)

	return nil
}

func (tc *testContext) iList(typeName string) error {
	return tc.list0(typeName, cardsdk.ListOptions{})
}

func (tc *testContext) iListWhere(typeName, key, value string) error {
	return tc.list0(typeName, cardsdk.ListOptions{Filter: map[string]string{key: value}, PerPage: 50})
}

func (tc *testContext) list0(typeName string, opts cardsdk.ListOptions) error {
	page, err := tc.client.List(context.Background(), typeName, opts)

	tc.err = err
	if err == nil {
		tc.list = page.Items
		tc.total = page.Total
	}

	return nil
}

func (tc *testContext) iListAll(typeName string) error {
	tc.list, tc.err = tc.client.ListAll(context.Background(), typeName, cardsdk.ListOptions{}, 0)
	tc.total = len(tc.list)

	return nil
}

func (tc *testContext) iCreate(typeName string, table *godog.Table) error {
	attrs, err := attributes(table)
	if err != nil {
		return err
	}

	tc.model, tc.err = tc.client.Create(context.Background(), plural(typeName), attrs)

	return nil
}

func (tc *testContext) iUpdate(typeName, id string, table *godog.Table) error {
	attrs, err := attributes(table)
	if err != nil {
		return err
	}

	tc.model, tc.err = tc.client.Update(context.Background(), typeName, id, attrs)

	return nil
}

func (tc *testContext) iDelete(typeName, id string) error {
	tc.err = tc.client.Delete(context.Background(), typeName, id)
	return nil
}

func (tc *testContext) theErrorScenarioIsRequested(status string) error {
	tc.model, tc.err = tc.client.Get(context.Background(), "_errors", status)
	return nil
}

func (tc *testContext) theCallShouldSucceed() error {
	if tc.err != nil {
		return fmt.Errorf("unexpected error: %w", tc.err)
	}

	return nil
}

func (tc *testContext) theResultShouldHave(attr, want string) error {
	if err := tc.theCallShouldSucceed(); err != nil {
		return err
	}

	return attributeIs(tc.model, attr, want)
}

func (tc *testContext) theResultShouldBeOfType(want string) error {
	if err := tc.theCallShouldSucceed(); err != nil {
		return err
	}

	if got := tc.model.Base().Type; got != want {
		return fmt.Errorf("expected type %q, got %q", want, got)
	}

	return nil
}

func (tc *testContext) theRelationShouldHave(key string, want int) error {
	if err := tc.theCallShouldSucceed(); err != nil {
		return err
	}

	rel, ok := tc.model.Base().Relation(key)
	if !ok {
		return fmt.Errorf("relation %q not attached; have %v", key, tc.model.Base().Relationships())
	}

	if len(rel.Items) != want {
		return fmt.Errorf("relation %q: expected %d items, got %d", key, want, len(rel.Items))
	}

	return nil
}

func (tc *testContext) theRelationAttributeShouldBe(key, attr, want string) error {
	if err := tc.theRelationShouldHave(key, 1); err != nil {
		return err
	}

	rel, _ := tc.model.Base().Relation(key)

	return attributeIs(rel.Items[0], attr, want)
}

func (tc *testContext) iShouldGetResults(want int) error {
	if err := tc.theCallShouldSucceed(); err != nil {
		return err
	}

	if len(tc.list) != want {
		return fmt.Errorf("expected %d results, got %d", want, len(tc.list))
	}

	return nil
}

func (tc *testContext) theTotalShouldBe(want int) error {
	if tc.total != want {
		return fmt.Errorf("expected total %d, got %d", want, tc.total)
	}

	return nil
}

func (tc *testContext) theResultsShouldHaveIDs(want string) error {
	if err := tc.theCallShouldSucceed(); err != nil {
		return err
	}

	ids := make([]string, 0, len(tc.list))
	for _, m := range tc.list {
		ids = append(ids, m.Base().ID)
	}

	if got := strings.Join(ids, ","); got != want {
		return fmt.Errorf("expected ids %s, got %s", want, got)
	}

	return nil
}

func (tc *testContext) theCallShouldFailWith(name string) error {
	want, ok := sentinels[name]
	if !ok {
		return fmt.Errorf("unknown error kind %q", name)
	}

	if tc.err == nil {
		return errors.New("expected an error, got none")
	}

	if !errors.Is(tc.err, want) {
		return fmt.Errorf("expected %s error, got %T: %w", name, tc.err, tc.err)
	}

	return nil
}

func (tc *testContext) theErrorStatusShouldBe(want int) error {
	var exc interface{ HTTPStatusCode() *int }
	if !errors.As(tc.err, &exc) {
		return fmt.Errorf("error %v carries no status", tc.err)
	}

	status := exc.HTTPStatusCode()
	if status == nil || *status != want {
		return fmt.Errorf("expected status %d, got %v", want, status)
	}

	return nil
}

func (tc *testContext) theErrorShouldReportForField(msg, field string) error {
	var verr *cardsdk.ValidationError
	if !errors.As(tc.err, &verr) {
		return fmt.Errorf("expected a validation error, got %T", tc.err)
	}

	for _, got := range verr.FieldErrors(field) {
		if got == msg {
			return nil
		}
	}

	return fmt.Errorf("field %q: %q not in %v", field, msg, verr.ErrorsByField())
}

func (tc *testContext) theErrorShouldAskToRetryAfter(want int) error {
	var rerr *cardsdk.RateLimitError
	if !errors.As(tc.err, &rerr) {
		return fmt.Errorf("expected a rate limit error, got %T", tc.err)
	}

	if rerr.RetryAfter == nil || *rerr.RetryAfter != want {
		return fmt.Errorf("expected retry after %d, got %v", want, rerr.RetryAfter)
	}

	return nil
}

// attributes reads a two-column attribute table. Integers are sent as
// numbers, everything else as strings.
func attributes(table *godog.Table) (map[string]any, error) {
	attrs := make(map[string]any, len(table.Rows))

	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("attribute rows need 2 cells, got %d", len(row.Cells))
		}

		key, value := row.Cells[0].Value, row.Cells[1].Value
		if n, err := strconv.Atoi(value); err == nil && !strings.HasSuffix(key, "_id") && key != "number" {
			attrs[key] = n
			continue
		}

		attrs[key] = value
	}

	return attrs, nil
}

func attributeIs(m cardsdk.Model, attr, want string) error {
	got := fmt.Sprint(m.Base().Attributes()[attr])
	if got != want {
		return fmt.Errorf("%s: expected %q, got %q", attr, want, got)
	}

	return nil
}

// plural turns a feature-file noun into a collection name.
func plural(noun string) string {
	if strings.HasSuffix(noun, "s") {
		return noun
	}

	return noun + "s"
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
