// ルームに接続してボードを操作するデモクライアント
// サーバーと同じJWT_SECRETを渡すと自前でセッショントークンを発行します
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whiteboard-api/internal/auth"
	"whiteboard-api/internal/board"
	"whiteboard-api/internal/idgen"
	"whiteboard-api/internal/models"
	"whiteboard-api/internal/protocol"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:8080", "server base URL")
	roomId := flag.String("room", "", "room id to join")
	name := flag.String("name", "demo", "display name")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "JWT secret for token signing")
	flag.Parse()

	if *roomId == "" {
		log.Fatal("-room is required")
	}
	if *secret == "" {
		log.Fatal("JWT secret is required (flag -secret or env JWT_SECRET)")
	}

	userId := idgen.NewULID()
	token, err := auth.NewAuthenticator(*secret).Sign(userId)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	store := board.NewStore()
	unsubscribe := store.Subscribe(func() {
		log.Printf("board changed: objects=%d", len(store.Objects()))
	})
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sess, err := board.Dial(ctx, *serverURL, *roomId, token, store, board.Events{
		OnUsers: func(users map[string]models.User) {
			log.Printf("presence: users=%d", len(users))
		},
		OnChat: func(msg protocol.Chat) {
			log.Printf("chat: name=%s text=%s", msg.Name, msg.Text)
		},
	})
	cancel()
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer sess.Close()

	go func() {
		if err := sess.Run(); err != nil {
			log.Printf("session closed: %v", err)
		}
	}()

	if err := sess.Identify(userId, *name); err != nil {
		log.Fatalf("identify failed: %v", err)
	}

	// ツールエンジン経由で図形をいくつか描いてみます
	b := &board.Board{Store: store, View: board.NewView(), Sender: sess}
	engine := board.NewEngine(b)

	engine.SetTool("rect")
	engine.PointerDown(models.Point{X: 40, Y: 40})
	engine.PointerMove(models.Point{X: 140, Y: 100})
	engine.PointerUp(models.Point{X: 140, Y: 100})

	engine.SetTool("pen")
	engine.PointerDown(models.Point{X: 200, Y: 200})
	for i := 1; i <= 20; i++ {
		engine.PointerMove(models.Point{X: 200 + float64(i)*5, Y: 200 + float64(i%5)*8})
	}
	engine.PointerUp(models.Point{X: 300, Y: 210})

	if err := sess.SendChat("hello from " + *name); err != nil {
		log.Printf("chat failed: %v", err)
	}

	log.Printf("connected: roomId=%s userId=%s (Ctrl+C to exit)", *roomId, userId)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}
