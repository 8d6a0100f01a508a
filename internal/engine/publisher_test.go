package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_ReplaysLatestOnSubscribe(t *testing.T) {
	p := NewPublisher[int]()
	p.Publish(1)
	p.Publish(2)

	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	assert.Equal(t, 2, <-ch)
	p.Publish(3)
	assert.Equal(t, 3, <-ch)
}

func TestPublisher_SlowSubscriberKeepsNewest(t *testing.T) {
	p := NewPublisher[int]()
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		p.Publish(i)
	}

	var got []int
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	require.Len(t, got, subscriberBuffer)
	assert.Equal(t, subscriberBuffer+9, got[len(got)-1])
}

func TestPublisher_CloseAndUnsubscribe(t *testing.T) {
	p := NewPublisher[string]()
	a, unsubscribeA := p.Subscribe()
	b, _ := p.Subscribe()

	unsubscribeA()
	unsubscribeA()
	_, open := <-a
	assert.False(t, open)

	p.Close()
	_, open = <-b
	assert.False(t, open)

	p.Publish("late")
	c, _ := p.Subscribe()
	_, open = <-c
	assert.False(t, open)
}
