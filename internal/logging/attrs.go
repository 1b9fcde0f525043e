package logging

import "log/slog"

// Shared attribute keys so every subsystem tags records the same way.
const (
	FieldSceneID   = "sceneID"
	FieldOperation = "operation"
	FieldRequestID = "requestID"
	FieldComponent = "component"
)

type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func SceneID(id int64) Attr { return slog.Int64(FieldSceneID, id) }

func Operation(name string) Attr { return slog.String(FieldOperation, name) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// WithComponent returns a logger tagged with the owning subsystem name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
