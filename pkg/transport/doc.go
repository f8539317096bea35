// Package transport defines the stream interfaces worker channels run over
// and provides implementations for in-process pipes (mem), TCP and QUIC.
//
// Key concepts:
// - Transport: dials/listens for Sessions of a specific Kind
// - Session: a connection between a parent and a worker host
// - Stream: an ordered Send/Recv channel of protocol.Envelope frames
// - FramedStream: u32 LE length-prefixed framing over any byte stream,
//   shared by every implementation here
package transport
