package logging

import "log/slog"

// Domain identifiers

func User(id string) slog.Attr {
	return slog.String("user_id", id)
}

func Conn(id string) slog.Attr {
	return slog.String("conn_id", id)
}

func Room(key string) slog.Attr {
	return slog.String("chat_room_id", key)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
