// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

func newUpgrader(policy *originPolicy) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.checkOrigin,
	}
}

// NewWebSocketHandler upgrades requests to WebSocket and hands each new
// connection to the hub, which opens its chat session and starts its pumps.
func NewWebSocketHandler(hub *Hub, cfg *Config, log *slog.Logger) http.HandlerFunc {
	upgrader := newUpgrader(newOriginPolicy(cfg.AllowedOrigins, log))

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "err", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr, cfg)
		if !hub.Join(client) {
			log.Warn("Hub is shutting down; dropping connection", "addr", r.RemoteAddr)
			_ = conn.Close()
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat relay is running!")
}

// TestPageHandler serves an HTML page that connects to /ws, renders the
// history and live messages, and sends chat messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		slog.Default().Warn("Error writing HTML response", "err", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            width: 300px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        .meta { color: gray; font-size: 0.85em; margin-right: 6px; }
    </style>
</head>
<body>
    <h1>Chat Relay</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addInfo(text) {
            const el = document.createElement('div');
            el.style.color = 'gray';
            el.style.fontStyle = 'italic';
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function addChatMessage(msg) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            const meta = document.createElement('span');
            meta.className = 'meta';
            meta.textContent = '[' + msg.timestamp + '] ' + msg.sender.slice(0, 8) + ':';
            const text = document.createElement('span');
            text.textContent = msg.text;
            el.appendChild(meta);
            el.appendChild(text);
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');

            ws.onopen = function() {
                addInfo('Connected to chat relay');
                updateStatus(true);
            };

            ws.onmessage = function(event) {
                const evt = JSON.parse(event.data);
                if (evt.type === 'history') {
                    messagesDiv.innerHTML = '';
                    (evt.history || []).forEach(addChatMessage);
                } else if (evt.type === 'chat message') {
                    addChatMessage(evt.message);
                }
            };

            ws.onclose = function() {
                addInfo('Connection closed');
                updateStatus(false);
                ws = null;
            };

            ws.onerror = function() {
                addInfo('Connection error');
                updateStatus(false);
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ type: 'chat message', text: text }));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
