package runtime

import (
	"context"
	"errors"
	"sync"
)

// fakeAccessor serves canned pages keyed by URL and records every call.
type fakeAccessor struct {
	mu      sync.Mutex
	pages   map[string]*Response
	calls   []fakeCall
	failURL string
}

type fakeCall struct {
	method  string
	url     string
	values  FormValues
	options Options
}

func newFakeAccessor() *fakeAccessor {
	return &fakeAccessor{pages: make(map[string]*Response)}
}

func (a *fakeAccessor) page(url, markup string) *fakeAccessor {
	return a.status(url, 200, markup)
}

func (a *fakeAccessor) status(url string, code int, markup string) *fakeAccessor {
	a.pages[url] = &Response{StatusCode: code, URL: url, HTML: markup}
	return a
}

// redirect serves target's page when url is requested.
func (a *fakeAccessor) redirect(url, target string) *fakeAccessor {
	a.pages[url] = &Response{StatusCode: 200, URL: target, HTML: a.pages[target].HTML}
	return a
}

func (a *fakeAccessor) Fetch(ctx context.Context, url string, opts Options) (*Response, error) {
	return a.serve(ctx, fakeCall{method: "GET", url: url, options: opts})
}

func (a *fakeAccessor) Submit(ctx context.Context, url string, values FormValues, opts Options) (*Response, error) {
	return a.serve(ctx, fakeCall{method: "POST", url: url, values: values.Clone(), options: opts})
}

func (a *fakeAccessor) serve(ctx context.Context, call fakeCall) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if call.url == a.failURL {
		return nil, errors.New("connection refused")
	}
	resp, ok := a.pages[call.url]
	if !ok {
		return &Response{StatusCode: 404, URL: call.url, HTML: "<html><body>not found</body></html>"}, nil
	}
	copied := *resp
	return &copied, nil
}

func (a *fakeAccessor) lastCall() fakeCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.calls) == 0 {
		panic("no calls recorded")
	}
	return a.calls[len(a.calls)-1]
}

func (a *fakeAccessor) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// mapSource is a ValueSource over two plain maps.
type mapSource struct {
	inputs  map[string]string
	outputs map[string]string
}

func (s mapSource) Input(name string) string  { return s.inputs[name] }
func (s mapSource) Output(name string) string { return s.outputs[name] }

const shopURL = "http://shop.test"

const productsMarkup = `<!DOCTYPE html>
<html>
<head><title>Products</title></head>
<body>
  <h1 class="heading">Our Products</h1>
  <ul>
    <li class="value">Value One</li>
    <li class="value">Value Two</li>
    <li class="value">Value Three</li>
  </ul>
  <img id="logo" src="/images/test.png" alt="Logo">
  <p id="order">Order ID: 98765</p>
  <form id="add-to-cart" name="addToCart" action="/cart/add" method="POST">
    <input type="hidden" name="productId" value="1">
    <select name="size">
      <option value="S">Small</option>
      <option value="M" selected>Medium</option>
      <option value="L"> Large </option>
    </select>
    <input type="number" name="quantity" value="1">
    <input type="checkbox" name="giftwrap" value="yes">
    <input type="submit" value="Add">
  </form>
  <form id="search" action="search" method="get">
    <input type="text" name="q" value="">
  </form>
</body>
</html>`

const checkoutMarkup = `<!DOCTYPE html>
<html>
<head><title>Checkout</title></head>
<body>
  <form id="checkout-form" action="/checkout/submit" method="post">
    <input type="text" name="billing_name" value="">
    <input type="radio" name="shipping" value="standard" checked>
    <input type="radio" name="shipping" value="express">
    <input type="checkbox" name="extras" value="insurance" checked>
    <input type="checkbox" name="extras" value="tracking" checked>
    <input type="checkbox" name="newsletter" checked>
    <input type="text" name="phone" value="555">
    <input type="text" name="phone" value="1234">
    <textarea name="notes">Leave at door</textarea>
    <select name="colors" multiple>
      <option selected>Red</option>
      <option value="g" selected>Green</option>
      <option>Blue</option>
    </select>
    <select name="empty"><option value="x">X</option></select>
    <input type="text" value="no name">
  </form>
  <input type="text" name="coupon" value="SAVE10" form="checkout-form">
</body>
</html>`
