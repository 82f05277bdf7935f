package testsite

const homePage = `<!DOCTYPE html>
<html>
<head><title>Welcome to Test Shop</title></head>
<body>
  <h1 id="welcome">Welcome to Test Shop</h1>
  <a href="/products">Products</a>
  <a href="/login">Login</a>
</body>
</html>`

const dataPage = `<!DOCTYPE html>
<html>
<head><title>Data Page</title></head>
<body>
  <ul id="values">
    <li class="value">Value One</li>
    <li class="value">Value Two</li>
    <li class="value">Value Three</li>
  </ul>
  <img id="logo" src="/images/test.png" alt="Logo" />
  <p class="order">Order ID: 98765</p>
  <div id="status">Active</div>
  <div id="content"><b>Bold</b> text</div>
</body>
</html>`

const productsPage = `<!DOCTYPE html>
<html>
<head><title>Products</title></head>
<body>
  <h1>Products</h1>
  <div class="product" data-id="1"><span class="name">Test Product</span><span class="price">$19.99</span></div>
  <form id="add-to-cart" name="addToCart" action="/cart/add" method="post">
    <input type="hidden" name="productId" value="1" />
    <select name="size">
      <option value="S">Small</option>
      <option value="M" selected>Medium</option>
      <option value="L">Large</option>
    </select>
    <input type="text" name="quantity" value="1" />
    <input type="checkbox" name="giftwrap" value="yes" />
    <button type="submit">Add to cart</button>
  </form>
</body>
</html>`

const cartPage = `<!DOCTYPE html>
<html>
<head><title>Shopping Cart</title></head>
<body>
  <h1>Your Cart</h1>
  <div class="cart-item">
    <span class="item-name">Test Product</span>
    <span class="item-size">%s</span>
    <span class="item-quantity">%s</span>
  </div>
  <a href="/checkout">Checkout</a>
</body>
</html>`

const checkoutPage = `<!DOCTYPE html>
<html>
<head><title>Checkout</title></head>
<body>
  <form id="checkout-form" action="/checkout/submit" method="post">
    <input type="text" name="billing_name" value="" />
    <input type="email" name="email" value="" />
    <input type="radio" name="shipping" value="standard" checked />
    <input type="radio" name="shipping" value="express" />
    <textarea name="notes">Leave at door</textarea>
    <button type="submit">Place order</button>
  </form>
</body>
</html>`

const confirmationPage = `<!DOCTYPE html>
<html>
<head><title>Order Confirmation</title></head>
<body>
  <h1>Thank you for your order!</h1>
  <p id="customer-name">%s</p>
  <p id="customer-email">%s</p>
  <p class="order-number">Order #: 12345</p>
</body>
</html>`

const loginPage = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
  <form id="login-form" action="/login" method="post">
    <input type="text" name="username" value="" />
    <input type="password" name="password" value="" />
    <input type="hidden" name="csrf" value="token-123" />
    <button type="submit">Login</button>
  </form>
</body>
</html>`

const loginFailedPage = `<!DOCTYPE html>
<html>
<head><title>Login Failed</title></head>
<body><p class="error">Invalid username or password</p></body>
</html>`

const dashboardPage = `<!DOCTYPE html>
<html>
<head><title>Dashboard</title></head>
<body>
  <h1>Dashboard</h1>
  <p class="welcome-message">Welcome back, testuser!</p>
</body>
</html>`

const postRedirectFormPage = `<!DOCTYPE html>
<html>
<head><title>Post Redirect Form</title></head>
<body>
  <form id="redirect-form" action="/post-redirect-test" method="post">
    <input type="text" name="billing_name" value="" />
    <button type="submit">Send</button>
  </form>
</body>
</html>`

const postRedirectResultPage = `<!DOCTYPE html>
<html>
<head><title>Post Redirect Result</title></head>
<body><p id="result-name">%s</p></body>
</html>`
