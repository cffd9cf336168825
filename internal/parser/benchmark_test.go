package parser

import (
	"fmt"
	"testing"
)

// BenchmarkParseEntity measures grammar throughput on a single isolated span.
func BenchmarkParseEntity(b *testing.B) {
	span := "MyClass(name = test123, other = 123, reference = MyOtherClass(id = 123, age = 23, name = heyho))"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseEntity(span); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseMessage measures span discovery plus parsing on a noisy line.
func BenchmarkParseMessage(b *testing.B) {
	line := "request finished Request(id = 42, user = User(name = alice, age = 31)) in 12ms (cached) Response(status = 200)"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseMessage(line)
	}
}

// BenchmarkParseMessagePlain measures lines that contain no object spans.
func BenchmarkParseMessagePlain(b *testing.B) {
	line := "2026-02-17T12:00:00Z WARN slow query detected while scanning the orders table"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseMessage(line)
	}
}

// BenchmarkParserThroughput measures sustained lines/sec over a large batch.
func BenchmarkParserThroughput(b *testing.B) {
	lines := make([]string, 1000)
	for i := range lines {
		switch i % 3 {
		case 0:
			lines[i] = fmt.Sprintf("loaded Order(id = %d, total = %d.5, customer = Customer(name = bob))", i, i)
		case 1:
			lines[i] = fmt.Sprintf("retry %d of 5 for Job(name = sync, queue = )", i)
		case 2:
			lines[i] = fmt.Sprintf("plain message number %d without structure", i)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseMessage(lines[i%1000])
	}
}
