// Command chat is the interactive console client for the relay. Plain input
// is sent as a chat message, "WHOISIN" requests the roster, "LOGOUT"
// disconnects, and a leading "@username " addresses one user privately.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/relaychat/relay/internal/protocol"
)

const noticeMark = " * "

func main() {
	app := &cli.App{
		Name:  "chat",
		Usage: "console client for the chat relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Value: "localhost",
				Usage: "relay host",
			},
			&cli.IntFlag{
				Name:  "port",
				Value: 1500,
				Usage: "relay port",
			},
			&cli.StringFlag{
				Name:  "username",
				Value: "Anonymous",
				Usage: "name shown to other users",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	addr := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	conn := protocol.NewConn(nc, protocol.DefaultMaxFrameSize)
	defer conn.Close()

	fmt.Printf("Connection accepted %s\n", nc.RemoteAddr())

	// The username is the first payload on the wire; the relay sends no
	// acknowledgment.
	if err := conn.WriteMessage(protocol.Message{Kind: protocol.KindText, Body: c.String("username")}); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	go listen(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return conn.WriteMessage(protocol.Message{Kind: protocol.KindLogout})
		}
		line := scanner.Text()

		var msg protocol.Message
		switch line {
		case "LOGOUT":
			msg = protocol.Message{Kind: protocol.KindLogout}
		case "WHOISIN":
			msg = protocol.Message{Kind: protocol.KindWhoIsIn}
		default:
			msg = protocol.Message{Kind: protocol.KindText, Body: line}
		}
		if err := conn.WriteMessage(msg); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if msg.Kind == protocol.KindLogout {
			return nil
		}
	}
}

func listen(conn *protocol.Conn) {
	for {
		text, err := conn.ReadText()
		if err != nil {
			fmt.Println(noticeMark + "Server has closed the connection" + noticeMark)
			os.Exit(0)
		}
		fmt.Println(text)
		fmt.Print("> ")
	}
}
