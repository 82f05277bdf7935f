package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"testing"
)

const (
	loginMarkup = `<html><head><title>Login</title></head><body>
<form id="login-form" action="/session" method="post">
  <input type="text" name="username" value="">
  <input type="password" name="password" value="">
  <input type="hidden" name="csrf" value="token-123">
</form></body></html>`

	dashboardMarkup = `<html><head><title>Dashboard</title></head><body>
<p class="welcome-message">Welcome back, testuser!</p></body></html>`

	cartMarkup = `<html><head><title>Shopping Cart</title></head><body>
<span id="cart-size">Large</span><span id="cart-quantity">2</span></body></html>`
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shopAccessor() *fakeAccessor {
	a := newFakeAccessor().
		page(shopURL+"/products", productsMarkup).
		page(shopURL+"/checkout", checkoutMarkup).
		page(shopURL+"/login", loginMarkup).
		page(shopURL+"/dashboard", dashboardMarkup).
		page(shopURL+"/cart", cartMarkup)
	return a.redirect(shopURL+"/cart/add", shopURL+"/cart").
		redirect(shopURL+"/session", shopURL+"/dashboard")
}

func fetchNode(url string, outputs ...any) map[string]any {
	body := map[string]any{"url": url}
	if len(outputs) > 0 {
		body["outputs"] = outputs
	}
	return map[string]any{"fetch": body}
}

func output(name, kind, expr string) map[string]any {
	return map[string]any{"name": name, kind: expr}
}

func jumpNode(to string) map[string]any {
	return map[string]any{"jump": map[string]any{"target": to}}
}

func urls(calls []fakeCall) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.url)
	}
	return out
}

func TestExecutor_FetchAndSubmit(t *testing.T) {
	script := buildScript(t, scriptNode("AddToCart",
		target("AddToCart",
			fetchNode("$(base)/products", output("orderId", "regex", `Order ID: (?P<orderId>\d+)`)),
			map[string]any{"submit": map[string]any{
				"clientId": "add-to-cart",
				"values": []any{
					map[string]any{"name": "size", "text": "$(size)"},
					map[string]any{"name": "quantity", "value": "$(qty)"},
				},
				"outputs": []any{
					output("cartSize", "css", "#cart-size"),
					output("cartQuantity", "xpath", "//span[@id='cart-quantity']"),
				},
			}},
		),
	))
	accessor := shopAccessor()
	executor := NewExecutor(testLogger(), accessor)

	result, err := executor.Run(context.Background(), script, map[string]string{
		"base": shopURL,
		"size": "large",
		"qty":  "2",
	}, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Ok {
		t.Fatalf("Expected success, got failure: %s", result.Message)
	}

	expected := map[string]string{"orderId": "98765", "cartSize": "Large", "cartQuantity": "2"}
	if !maps.Equal(result.Outputs, expected) {
		t.Errorf("Expected outputs %v, got %v", expected, result.Outputs)
	}

	submit := accessor.lastCall()
	if submit.method != "POST" || submit.url != shopURL+"/cart/add" {
		t.Errorf("Expected POST to /cart/add, got %s %s", submit.method, submit.url)
	}
	if keys := submit.values.Keys(); !slices.Equal(keys, []string{"productId", "size", "quantity", "giftwrap"}) {
		t.Errorf("Expected document field order, got %v", keys)
	}
	for name, want := range map[string]string{"productId": "1", "size": "L", "quantity": "2", "giftwrap": ""} {
		if got, _ := submit.values.Get(name); got != want {
			t.Errorf("Expected %s='%s', got '%s'", name, want, got)
		}
	}
}

func TestExecutor_JumpContinuesCaller(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main",
			fetchNode(shopURL+"/products"),
			map[string]any{"if": map[string]any{
				"property": "$(login)", "value": "TRUE",
				"action": map[string]any{"call": map[string]any{"target": "Login"}},
			}},
			fetchNode(shopURL+"/checkout", output("title", "xpath", "//title")),
		),
		target("Login",
			fetchNode(shopURL+"/login"),
			map[string]any{"post": map[string]any{
				"clientId": "login-form",
				"values": []any{
					map[string]any{"name": "username", "value": "$(user)"},
				},
				"outputs": []any{output("welcome", "css", ".welcome-message")},
			}},
		),
	))

	t.Run("branch taken", func(t *testing.T) {
		accessor := shopAccessor()
		executor := NewExecutor(testLogger(), accessor)
		result, err := executor.Run(context.Background(), script, map[string]string{"login": "true", "user": "alice"}, "")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !result.Ok {
			t.Fatalf("Expected success, got %s", result.Message)
		}

		expected := []string{shopURL + "/products", shopURL + "/login", shopURL + "/session", shopURL + "/checkout"}
		if got := urls(accessor.calls); !slices.Equal(got, expected) {
			t.Errorf("Expected calls %v, got %v", expected, got)
		}
		if result.Outputs["title"] != "Checkout" {
			t.Errorf("Expected caller to continue after the jump, got title '%s'", result.Outputs["title"])
		}
		if result.Outputs["welcome"] != "Welcome back, testuser!" {
			t.Errorf("Expected outputs of the jumped-to target, got %v", result.Outputs)
		}
		if result.Target != "" {
			t.Errorf("Expected no target on the run result, got '%s'", result.Target)
		}
	})

	t.Run("branch skipped", func(t *testing.T) {
		accessor := shopAccessor()
		executor := NewExecutor(testLogger(), accessor)
		result, err := executor.Run(context.Background(), script, map[string]string{"login": "no"}, "")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !result.Ok {
			t.Fatalf("Expected success, got %s", result.Message)
		}
		expected := []string{shopURL + "/products", shopURL + "/checkout"}
		if got := urls(accessor.calls); !slices.Equal(got, expected) {
			t.Errorf("Expected calls %v, got %v", expected, got)
		}
	})
}

func TestExecutor_ExplicitTarget(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main", fetchNode(shopURL+"/products")),
		target("Checkout", fetchNode(shopURL+"/checkout")),
	))
	accessor := shopAccessor()

	result, err := NewExecutor(testLogger(), accessor).Run(context.Background(), script, nil, "checkout")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Ok {
		t.Fatalf("Expected success, got %s", result.Message)
	}
	if got := urls(accessor.calls); !slices.Equal(got, []string{shopURL + "/checkout"}) {
		t.Errorf("Expected only the requested target to run, got %v", got)
	}
}

func TestExecutor_FailureHalts(t *testing.T) {
	tests := []struct {
		name     string
		first    map[string]any
		setup    func(*fakeAccessor)
		expected string
	}{
		{
			name:     "unexpected status",
			first:    fetchNode(shopURL + "/missing"),
			expected: "NotFound",
		},
		{
			name:     "expected value mismatch",
			first:    fetchNode(shopURL+"/products", map[string]any{"name": "title", "xpath": "//title", "expected": "Dashboard"}),
			expected: "Expected:Dashboard, but the actual value is: Products",
		},
		{
			name:     "transport error",
			first:    fetchNode(shopURL + "/products"),
			setup:    func(a *fakeAccessor) { a.failURL = shopURL + "/products" },
			expected: "connection refused",
		},
		{
			name: "status outside custom list",
			first: map[string]any{"fetch": map[string]any{
				"url": shopURL + "/products", "expectedStatusCodes": []any{302},
			}},
			expected: "OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := buildScript(t, scriptNode("Main",
				target("Main", tt.first, fetchNode(shopURL+"/checkout")),
			))
			accessor := shopAccessor()
			if tt.setup != nil {
				tt.setup(accessor)
			}

			result, err := NewExecutor(testLogger(), accessor).Run(context.Background(), script, nil, "")
			if err != nil {
				t.Fatalf("Expected a failed result rather than an error, got %v", err)
			}
			if result.Ok {
				t.Fatal("Expected failure")
			}
			if result.Message != tt.expected {
				t.Errorf("Expected message '%s', got '%s'", tt.expected, result.Message)
			}
			if accessor.callCount() != 1 {
				t.Errorf("Expected the failed step to stop the run, got %d calls", accessor.callCount())
			}
		})
	}
}

func TestExecutor_AcceptedNonSuccessStatus(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main", map[string]any{"fetch": map[string]any{
			"url":                 shopURL + "/gone",
			"expectedStatusCodes": "200,404",
			"outputs":             []any{output("body", "css", "body")},
		}}),
	))

	result, err := NewExecutor(testLogger(), shopAccessor()).Run(context.Background(), script, nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Ok || result.Outputs["body"] != "not found" {
		t.Errorf("Expected accepted 404 to be extracted, got %+v", result)
	}
}

func TestExecutor_NestedFailureStopsCaller(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main", jumpNode("Broken"), fetchNode(shopURL+"/checkout")),
		target("Broken", fetchNode(shopURL+"/missing")),
	))
	accessor := shopAccessor()

	result, err := NewExecutor(testLogger(), accessor).Run(context.Background(), script, nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Ok || result.Message != "NotFound" {
		t.Errorf("Expected nested failure to be the run's result, got %+v", result)
	}
	if accessor.callCount() != 1 {
		t.Errorf("Expected caller to stop, got %v", urls(accessor.calls))
	}
}

func TestExecutor_OutputsLastWriteWins(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main",
			fetchNode(shopURL+"/products", output("title", "xpath", "//title")),
			jumpNode("Other"),
			fetchNode(shopURL+"/checkout", output("title", "xpath", "//title")),
		),
		target("Other", fetchNode(shopURL+"/login", output("title", "xpath", "//title"), output("login", "css", "form"))),
	))

	result, err := NewExecutor(testLogger(), shopAccessor()).Run(context.Background(), script, nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Outputs["title"] != "Checkout" {
		t.Errorf("Expected last write to win, got '%s'", result.Outputs["title"])
	}
	if _, ok := result.Outputs["login"]; !ok {
		t.Error("Expected outputs of earlier steps to be kept")
	}
}

func TestExecutor_OutputsFeedLaterSteps(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main",
			fetchNode(shopURL+"/products", output("order", "regex", `Order ID: (?P<order>\d+)`)),
			fetchNode("$(base)/orders/${order}"),
		),
	))
	accessor := shopAccessor().page(shopURL+"/orders/98765", "<html><title>Order</title></html>")

	result, err := NewExecutor(testLogger(), accessor).Run(context.Background(), script, map[string]string{"base": shopURL}, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Ok {
		t.Fatalf("Expected success, got %s", result.Message)
	}
	if got := accessor.lastCall().url; got != shopURL+"/orders/98765" {
		t.Errorf("Expected resolved url, got '%s'", got)
	}
}

func TestExecutor_ResolvesOptions(t *testing.T) {
	script := buildScript(t, scriptNode("Main",
		target("Main", map[string]any{"fetch": map[string]any{
			"url":     shopURL + "/products",
			"options": map[string]any{"loadDelay": "$(delay)"},
		}}),
	))
	accessor := shopAccessor()

	if _, err := NewExecutor(testLogger(), accessor).Run(context.Background(), script, map[string]string{"delay": "1500"}, ""); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := accessor.lastCall().options["loadDelay"]; got != "1500" {
		t.Errorf("Expected resolved option, got '%s'", got)
	}
}

func TestExecutor_ScriptErrors(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		target   string
		sentinel error
		at       string
	}{
		{
			name:     "no entry target",
			node:     scriptNode("", target("Main")),
			sentinel: ErrNoEntryTarget,
		},
		{
			name:     "unknown entry target",
			node:     scriptNode("Main", target("Main")),
			target:   "Checkout",
			sentinel: ErrTargetNotFound,
			at:       "Checkout",
		},
		{
			name:     "jump to missing target",
			node:     scriptNode("Main", target("Main", jumpNode("Nowhere"))),
			sentinel: ErrTargetNotFound,
			at:       "Nowhere",
		},
		{
			name:     "submit without page",
			node:     scriptNode("Main", target("Main", map[string]any{"submit": nil})),
			sentinel: ErrNoCurrentPage,
			at:       "Main",
		},
		{
			name: "form not found",
			node: scriptNode("Main", target("Main",
				fetchNode(shopURL+"/products"),
				map[string]any{"submit": map[string]any{"formName": "checkout"}},
			)),
			sentinel: ErrFormNotFound,
			at:       "Main",
		},
		{
			name: "form index out of range",
			node: scriptNode("Main", target("Main",
				fetchNode(shopURL+"/products"),
				map[string]any{"submit": map[string]any{"formIndex": 5}},
			)),
			sentinel: ErrFormNotFound,
			at:       "Main",
		},
		{
			name: "option text not found",
			node: scriptNode("Main", target("Main",
				fetchNode(shopURL+"/products"),
				map[string]any{"submit": map[string]any{
					"action": "/cart/add",
					"values": []any{map[string]any{"name": "size", "text": "Huge"}},
				}},
			)),
			sentinel: ErrLookupFailed,
			at:       "Main",
		},
		{
			name: "error inside jumped-to target",
			node: scriptNode("Main",
				target("Main", fetchNode(shopURL+"/products"), jumpNode("Pay")),
				target("Pay", map[string]any{"submit": map[string]any{"clientId": "payment"}}),
			),
			sentinel: ErrFormNotFound,
			at:       "Pay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := buildScript(t, tt.node)
			result, err := NewExecutor(testLogger(), shopAccessor()).Run(context.Background(), script, nil, tt.target)
			if err == nil {
				t.Fatalf("Expected error, got result %+v", result)
			}
			if result != nil {
				t.Errorf("Expected no result alongside an error, got %+v", result)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected %v, got %v", tt.sentinel, err)
			}
			se, ok := AsScriptError(err)
			if !ok {
				t.Fatalf("Expected ScriptError, got %T", err)
			}
			if se.Target != tt.at {
				t.Errorf("Expected error at target '%s', got '%s'", tt.at, se.Target)
			}
		})
	}
}

func TestExecutor_LookupFailureKeepsCause(t *testing.T) {
	script := buildScript(t, scriptNode("Main", target("Main",
		fetchNode(shopURL+"/products"),
		map[string]any{"submit": map[string]any{
			"values": []any{map[string]any{"name": "size", "text": "Huge"}},
		}},
	)))

	_, err := NewExecutor(testLogger(), shopAccessor()).Run(context.Background(), script, nil, "")
	if !errors.Is(err, ErrOptionNotFound) {
		t.Errorf("Expected the missing option to be the cause, got %v", err)
	}
}

func TestExecutor_JumpDepth(t *testing.T) {
	script := buildScript(t, scriptNode("Poll",
		target("Poll", fetchNode(shopURL+"/products"), jumpNode("poll")),
	))

	t.Run("limit reached", func(t *testing.T) {
		accessor := shopAccessor()
		_, err := NewExecutor(testLogger(), accessor, WithMaxJumpDepth(3)).Run(context.Background(), script, nil, "")
		if !errors.Is(err, ErrJumpDepthExceeded) {
			t.Fatalf("Expected ErrJumpDepthExceeded, got %v", err)
		}
		if accessor.callCount() != 4 {
			t.Errorf("Expected 4 fetches before the limit, got %d", accessor.callCount())
		}
	})

	t.Run("cancellation ends an unbounded loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		accessor := shopAccessor()
		counting := &cancelAfter{WebAccessor: accessor, n: 5, cancel: cancel}

		result, err := NewExecutor(testLogger(), counting, WithMaxJumpDepth(0)).Run(ctx, script, nil, "")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Ok || result.Message != context.Canceled.Error() {
			t.Errorf("Expected cancellation to fail the step, got %+v", result)
		}
	})
}

// cancelAfter cancels the run's context once n calls have been made.
type cancelAfter struct {
	WebAccessor
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Fetch(ctx context.Context, url string, opts Options) (*Response, error) {
	c.n--
	if c.n <= 0 {
		c.cancel()
	}
	return c.WebAccessor.Fetch(ctx, url, opts)
}

func TestExecutor_InvalidArguments(t *testing.T) {
	script := buildScript(t, scriptNode("Main", target("Main")))

	if _, err := NewExecutor(testLogger(), shopAccessor()).Run(context.Background(), nil, nil, ""); err == nil {
		t.Error("Expected error for nil script")
	}
	if _, err := NewExecutor(testLogger(), nil).Run(context.Background(), script, nil, ""); err == nil {
		t.Error("Expected error for missing accessor")
	}
}

func TestExecutor_EmptyTargetSucceeds(t *testing.T) {
	script := buildScript(t, scriptNode("Main", target("Main")))

	result, err := NewExecutor(nil, shopAccessor()).Run(context.Background(), script, map[string]string{"a": "b"}, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Ok || len(result.Outputs) != 0 {
		t.Errorf("Expected empty success, got %+v", result)
	}
}

func TestExecution_Value(t *testing.T) {
	type ctxKey struct{}
	parent := context.WithValue(context.Background(), ctxKey{}, "parent")
	exec := NewExecution(parent, nil, map[string]string{"user": "alice", "shared": "input"}, nil)
	exec.SetOutput("shared", "output")

	if exec.Value("shared") != "output" {
		t.Error("Expected outputs to shadow inputs")
	}
	if exec.Value("user") != "alice" {
		t.Error("Expected inputs to be visible")
	}
	if exec.Value(ctxKey{}) != "parent" {
		t.Error("Expected other keys to reach the parent context")
	}
	if exec.Value("missing") != nil {
		t.Error("Expected unknown keys to be nil")
	}

	outputs := exec.Outputs()
	outputs["shared"] = "changed"
	if exec.Output("shared") != "output" {
		t.Error("Expected Outputs to return a copy")
	}
}
