package tcp

import (
    "context"
    "testing"
    "time"
)

func TestLoopbackFrames(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    tr := New()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    defer l.Close()

    cli, err := tr.Dial(ctx, l.Addr().String())
    if err != nil { t.Fatalf("dial: %v", err) }
    defer cli.Close()
    srv, err := l.Accept(ctx)
    if err != nil { t.Fatalf("accept: %v", err) }
    defer srv.Close()

    cs, _ := cli.OpenStream(ctx)
    ss, _ := srv.AcceptStream(ctx)
    for _, msg := range []string{"one", "two", ""} {
        if err := cs.SendBytes([]byte(msg)); err != nil { t.Fatalf("send: %v", err) }
    }
    for _, want := range []string{"one", "two", ""} {
        got, err := ss.RecvBytes()
        if err != nil { t.Fatalf("recv: %v", err) }
        if string(got) != want { t.Fatalf("got %q want %q", got, want) }
    }
}
