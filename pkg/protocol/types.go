package protocol

// Frame types (fits in uint8).
const (
    FrameUnknown   uint8 = iota
    FrameBootstrap       // bootstrap descriptor, first frame parent -> worker
    FrameMessage         // application payload, either direction
    FrameError           // error report, worker -> parent
)

// Content types of the payload codecs.
const (
    ContentUnknown = "application/octet-stream"
    ContentCBOR    = "application/cbor"
    ContentJSON    = "application/json"
    ContentProto   = "application/x-protobuf"
)

// FrameTypeName returns a short label for logging.
func FrameTypeName(t uint8) string {
    switch t {
    case FrameBootstrap:
        return "bootstrap"
    case FrameMessage:
        return "message"
    case FrameError:
        return "error"
    default:
        return "unknown"
    }
}
