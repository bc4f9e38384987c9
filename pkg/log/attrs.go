package log

import "log/slog"

func Equipment[T ~string](name T) slog.Attr {
	return slog.String("equipment", string(name))
}

func Kind[T ~string](kind T) slog.Attr {
	return slog.String("kind", string(kind))
}

func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
