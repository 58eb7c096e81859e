package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Field helpers for names that recur across the extraction pipeline
func Component(name string) Field {
	return String("component", name)
}

func Predicate(p string) Field {
	return String("predicate", p)
}

func Table(name string) Field {
	return String("table", name)
}

func Tier(t string) Field {
	return String("tier", t)
}

func Category(c string) Field {
	return String("category", c)
}

func Rows(n int) Field {
	return Int("rows", n)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
