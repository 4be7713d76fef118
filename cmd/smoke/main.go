package main

import (
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"strings"
	"time"

	"supportly-be/internal/dto"
	"supportly-be/internal/pkg/serverutils"

	"github.com/fasthttp/websocket"
	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// smoke exercises the public widget path end to end: token, connect, ask,
// print the streamed answer.
func main() {
	baseURL := flag.String("base", "http://localhost:3000", "API base URL")
	tenant := flag.String("tenant", "", "tenant id")
	bot := flag.String("bot", "", "bot id")
	question := flag.String("q", "What is your return policy?", "question to ask")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for the answer")
	flag.Parse()

	tenantId, err := uuid.Parse(*tenant)
	if err != nil {
		color.Red("-tenant must be a uuid")
		os.Exit(2)
	}
	botId, err := uuid.Parse(*bot)
	if err != nil {
		color.Red("-bot must be a uuid")
		os.Exit(2)
	}

	color.Cyan("Starting widget smoke test against %s\n", *baseURL)

	// 1. Widget token
	color.Yellow("\n[1] Requesting widget token")
	var authRes struct {
		serverutils.BaseResponse
		Data dto.WidgetAuthResponse `json:"data"`
	}
	resp, err := resty.New().SetTimeout(10 * time.Second).R().
		SetBody(dto.WidgetAuthRequest{TenantId: tenantId}).
		SetResult(&authRes).
		Post(*baseURL + "/api/widget-auth")
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.IsError() {
		color.Red("Failed: %s %s", resp.Status(), resp.String())
		os.Exit(1)
	}
	color.Green("Token issued, expires in %ds", authRes.Data.ExpiresIn)

	// 2. Connect
	color.Yellow("\n[2] Connecting")
	wsURL := strings.Replace(*baseURL, "http", "ws", 1) + "/ws?token=" + url.QueryEscape(authRes.Data.Token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	defer conn.Close()
	color.Green("Connected")

	// 3. Ask
	color.Yellow("\n[3] Asking: %s", *question)
	frame, _ := json.Marshal(dto.VisitorMessage{Type: dto.WireTypeVisitorMessage, Text: *question, BotId: botId})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}

	// 4. Stream deltas until the server goes quiet
	var answer strings.Builder
	deadline := time.Now().Add(*wait)
	for {
		idle := 3 * time.Second
		if answer.Len() == 0 {
			idle = time.Until(deadline)
		}
		_ = conn.SetReadDeadline(time.Now().Add(idle))

		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg dto.BotMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != dto.WireTypeBotMessage {
			continue
		}
		color.New(color.FgWhite).Print(msg.Text)
		answer.WriteString(msg.Text)
	}

	if answer.Len() == 0 {
		color.Red("\nNo answer received")
		os.Exit(1)
	}
	color.Green("\n\nReceived %d characters", answer.Len())
}
