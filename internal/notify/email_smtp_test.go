package notify

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mulambwane/safari-forms/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer speaks just enough SMTP for SMTPSender: EHLO, AUTH PLAIN,
// MAIL, RCPT, DATA, QUIT.
type fakeSMTPServer struct {
	ln         net.Listener
	rejectRcpt string
	rejectAuth bool
	silent     bool

	mu    sync.Mutex
	auths []string
	from  []string
	rcpts []string
	data  []string
}

func newFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTPServer{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeSMTPServer) start() {
	go func() {
		for {
			conn, err := s.ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
}

func (s *fakeSMTPServer) port() string {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	return port
}

func (s *fakeSMTPServer) serve(conn net.Conn) {
	defer conn.Close()
	if s.silent {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _ = bufio.NewReader(conn).ReadByte()
		return
	}

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }
	reply("220 fake.example ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO", "HELO":
			reply("250-fake.example")
			reply("250 AUTH PLAIN")
		case "AUTH":
			s.mu.Lock()
			s.auths = append(s.auths, line)
			s.mu.Unlock()
			if s.rejectAuth {
				reply("535 5.7.8 bad credentials")
				continue
			}
			reply("235 2.7.0 accepted")
		case "MAIL":
			s.mu.Lock()
			s.from = append(s.from, line)
			s.mu.Unlock()
			reply("250 2.1.0 ok")
		case "RCPT":
			if s.rejectRcpt != "" && strings.Contains(line, s.rejectRcpt) {
				reply("550 5.1.1 no such user")
				continue
			}
			s.mu.Lock()
			s.rcpts = append(s.rcpts, line)
			s.mu.Unlock()
			reply("250 2.1.5 ok")
		case "DATA":
			reply("354 end with <CRLF>.<CRLF>")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.data = append(s.data, b.String())
			s.mu.Unlock()
			reply("250 2.0.0 queued")
		case "RSET", "NOOP":
			reply("250 ok")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func newTestSMTPSender(t *testing.T, port string) *SMTPSender {
	t.Helper()
	sender := NewSMTPSender(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "bookings@example.com",
		Password: "app-password",
		FromName: "Mulambwane Safaris",
	}, logging.New("error"))
	require.NotNil(t, sender)
	return sender
}

func TestNewSMTPSender_NilWithoutCredentials(t *testing.T) {
	assert.Nil(t, NewSMTPSender(SMTPConfig{Host: "smtp.gmail.com", Username: "a@example.com"}, nil))
	assert.Nil(t, NewSMTPSender(SMTPConfig{Host: " ", Username: "a@example.com", Password: "x"}, nil))

	sender := NewSMTPSender(SMTPConfig{Host: "smtp.gmail.com", Username: "a@example.com", Password: "x"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "587", sender.cfg.Port)
	assert.Equal(t, "a@example.com", sender.cfg.FromEmail)
	assert.Equal(t, defaultFromName, sender.cfg.FromName)
}

func TestSMTPSender_Send(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.start()
	sender := newTestSMTPSender(t, srv.port())

	id, err := sender.Send(context.Background(), EmailMessage{
		To:      "jane@example.com",
		ToName:  "Jane Doe",
		ReplyTo: "lodge@example.com",
		Subject: "Thank you for contacting Mulambwane Safaris",
		Body:    "We will be in touch.",
		HTML:    "<p>We will be in touch.</p>",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "<") && strings.HasSuffix(id, "@example.com>"), id)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.auths, 1)
	assert.True(t, strings.HasPrefix(srv.auths[0], "AUTH PLAIN "))
	assert.Equal(t, []string{"MAIL FROM:<bookings@example.com>"}, srv.from)
	assert.Equal(t, []string{"RCPT TO:<jane@example.com>"}, srv.rcpts)
	require.Len(t, srv.data, 1)
	assert.Contains(t, srv.data[0], "Subject: Thank you for contacting Mulambwane Safaris")
	assert.Contains(t, srv.data[0], "Message-ID: "+id)
	assert.Contains(t, srv.data[0], "multipart/alternative")
}

func TestSMTPSender_RecipientRejected(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.rejectRcpt = "nobody@example.com"
	srv.start()
	sender := newTestSMTPSender(t, srv.port())

	_, err := sender.Send(context.Background(), EmailMessage{To: "nobody@example.com", Subject: "hi", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RCPT TO")
	assert.Contains(t, err.Error(), "550")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.data)
}

func TestSMTPSender_AuthRejected(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.rejectAuth = true
	srv.start()
	sender := newTestSMTPSender(t, srv.port())

	err := sender.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp auth")
}

func TestSMTPSender_Verify(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.start()
	sender := newTestSMTPSender(t, srv.port())

	require.NoError(t, sender.Verify(context.Background()))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Len(t, srv.auths, 1)
	assert.Empty(t, srv.from)
}

func TestSMTPSender_Unreachable(t *testing.T) {
	srv := newFakeSMTPServer(t)
	port := srv.port()
	require.NoError(t, srv.ln.Close())
	sender := newTestSMTPSender(t, port)

	_, err := sender.Send(context.Background(), EmailMessage{To: "jane@example.com", Subject: "hi", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp dial")
}

func TestSMTPSender_TimesOutOnSilentServer(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.silent = true
	srv.start()
	sender := newTestSMTPSender(t, srv.port())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sender.Send(ctx, EmailMessage{To: "jane@example.com", Subject: "hi", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp handshake")
	assert.Less(t, time.Since(start), time.Second)
}
