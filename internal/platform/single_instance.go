package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"time"

	"focusflow/internal/ipc"
	"focusflow/internal/logging"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// ErrNotRunning indicates no instance is listening.
var ErrNotRunning = errors.New("no running instance")

const dialTimeout = 2 * time.Second

// InstanceHandlers receive what other processes send to the running instance.
type InstanceHandlers struct {
	// OnActivate runs when a second launch connects without a message.
	OnActivate func()
	OnMessage  func(msg ipc.Message)
}

// InstanceGuard holds the single-instance lock.
type InstanceGuard struct {
	listener net.Listener
	address  string
	logger   *slog.Logger
}

// AcquireSingleInstance attempts to bind a deterministic localhost port.
func AcquireSingleInstance(appName string, logger *slog.Logger) (*InstanceGuard, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	address := instanceAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return &InstanceGuard{listener: listener, address: address, logger: logger}, nil
}

// Serve accepts connections until ctx is done or the guard is released. Each
// connection carries zero or more newline separated message envelopes.
func (guard *InstanceGuard) Serve(ctx context.Context, handlers InstanceHandlers) error {
	go func() {
		<-ctx.Done()
		guard.listener.Close()
	}()

	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept instance connection: %w", err)
		}
		go guard.handle(conn, handlers)
	}
}

func (guard *InstanceGuard) handle(conn net.Conn, handlers InstanceHandlers) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	received := 0
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := ipc.Decode(line)
		if err != nil {
			guard.logger.Warn("rejected instance message", "error", err)
			continue
		}
		received++
		if handlers.OnMessage != nil {
			handlers.OnMessage(msg)
		}
	}
	if received == 0 && handlers.OnActivate != nil {
		handlers.OnActivate()
	}
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	err := guard.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

// Activate asks the running instance to bring its window forward.
func Activate(appName string) error {
	return Forward(appName)
}

// Forward sends messages to the running instance.
func Forward(appName string, messages ...ipc.Message) error {
	conn, err := net.DialTimeout("tcp", instanceAddress(appName), dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotRunning, err)
	}
	defer conn.Close()

	writer := bufio.NewWriter(conn)
	for _, msg := range messages {
		data, err := ipc.Encode(msg)
		if err != nil {
			return fmt.Errorf("encode %s: %w", msg.Kind(), err)
		}
		writer.Write(data)
		writer.WriteByte('\n')
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("send to running instance: %w", err)
	}
	return nil
}

func instanceAddress(appName string) string {
	return fmt.Sprintf("127.0.0.1:%d", portFromName(appName))
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
