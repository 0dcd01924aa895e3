package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wirechat/wirechat/src/client"
	"github.com/wirechat/wirechat/src/protocol"
)

const downloadDir = "received_files"

func main() {
	host := flag.String("host", "127.0.0.1", "server host to connect to")
	port := flag.Int("port", 12000, "server port")
	username := flag.String("u", "", "username for the chat (required)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	if *username == "" {
		fmt.Fprintln(os.Stderr, "a username is required: -u <name>")
		os.Exit(2)
	}

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	c, err := client.Dial(addr, *username, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not join %s: %v\n", addr, err)
		os.Exit(1)
	}
	fmt.Printf("Connected to %s as %s. Type /help for commands.\n", addr, *username)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range c.Events() {
			printEvent(msg)
		}
		fmt.Println("Disconnected from server.")
	}()

	inputLoop(c)
	<-done
}

func inputLoop(c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.EqualFold(line, "/quit"):
			if err := c.Quit(); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
			return
		case strings.HasPrefix(strings.ToLower(line), "/send "):
			sendFile(c, strings.TrimSpace(line[len("/send "):]))
		default:
			if err := c.SendText(line); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
				return
			}
		}
	}
}

func sendFile(c *client.Client, path string) {
	if path == "" {
		fmt.Println("Usage: /send <path/to/file>")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %q: %v\n", path, err)
		return
	}
	name := filepath.Base(path)
	if err := c.SendFile(name, data); err != nil {
		fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		return
	}
	fmt.Printf("Sent file %q (%d bytes)\n", name, len(data))
}

func printEvent(msg protocol.Message) {
	stamp := time.Now().Format("15:04:05")

	switch msg.Type {
	case protocol.TypeText:
		sender, text, ok := bytes.Cut(msg.Payload, []byte("::"))
		if ok && !bytes.HasPrefix(msg.Payload, []byte("[Server]")) {
			fmt.Printf("[%s] %s: %s\n", stamp, sender, text)
		} else {
			fmt.Printf("[%s] %s\n", stamp, msg.Payload)
		}
	case protocol.TypeFile:
		saveFile(stamp, msg.Payload)
	case protocol.TypeJoin, protocol.TypeLeave:
		fmt.Printf("[%s] %s\n", stamp, msg.Payload)
	case protocol.TypeError:
		fmt.Printf("[%s] [Server Error] %s\n", stamp, msg.Payload)
	case protocol.TypeCommand:
		if string(msg.Payload) == protocol.QuitAck {
			fmt.Printf("[%s] Quit acknowledged by server.\n", stamp)
		}
	}
}

// saveFile writes a broadcast FILE payload (sender::filename::data) to
// the local download directory.
func saveFile(stamp string, payload []byte) {
	sender, rest, ok := bytes.Cut(payload, []byte("::"))
	if !ok {
		fmt.Printf("[%s] [Error] malformed file message\n", stamp)
		return
	}
	filename, data, ok := bytes.Cut(rest, []byte("::"))
	if !ok {
		fmt.Printf("[%s] [Error] malformed file message\n", stamp)
		return
	}

	fmt.Printf("[%s] %s sent a file: %q (%d bytes)\n", stamp, sender, filename, len(data))

	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", downloadDir, err)
		return
	}
	dest := filepath.Join(downloadDir, filepath.Base(string(filename)))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "cannot save %q: %v\n", dest, err)
		return
	}
	fmt.Printf("[File saved to %s]\n", dest)
}
