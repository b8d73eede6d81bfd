package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Shell renders the single-page app that hosts the whiteboard and chat.
// Every non-API route serves it; script.js takes over from there.
func Shell(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, shellHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(title)); err != nil {
			return err
		}
		_, err := io.WriteString(w, shellBody)
		return err
	})
}

const shellHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="/static/styles.css">
<title>`

const shellBody = `</title>
</head>
<body>
<header>
<span id="connection-status">Connecting...</span>
<span id="online-count">0</span>
<button id="theme-toggle" type="button">Theme</button>
<button id="mode-toggle" type="button">Mode</button>
</header>
<main>
<section class="toolbar">
<input id="color" type="color" value="#000000">
<button id="decrease" type="button">-</button>
<input id="size" type="number" min="1" max="50" value="5">
<button id="increase" type="button">+</button>
<select id="tool"><option value="pen">Pen</option><option value="brush">Brush</option></select>
<button id="eraser" type="button">Eraser</button>
<input id="background" type="color" value="#ffffff">
<button id="download" type="button">Download</button>
<button id="resizeCanvas" type="button">Resize</button>
<div id="resizeOption" hidden>
<input id="width" type="number" min="1">
<input id="height" type="number" min="1">
</div>
</section>
<canvas id="canvas"></canvas>
<aside>
<ul id="messages"></ul>
<input id="message" type="text" maxlength="500" autocomplete="off">
<button id="send" type="button">Send</button>
</aside>
</main>
<script src="/static/script.js"></script>
</body>
</html>
`
