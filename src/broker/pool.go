package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channelPool is a bounded pool of AMQP channels multiplexed over one
// connection. Publishers borrow a channel per operation; a new channel
// is opened only while fewer than size are outstanding.
type channelPool struct {
	conn *amqp.Connection
	idle chan *amqp.Channel
	slot chan struct{}
}

func newChannelPool(conn *amqp.Connection, size int) *channelPool {
	if size <= 0 {
		size = 1
	}
	p := &channelPool{
		conn: conn,
		idle: make(chan *amqp.Channel, size),
		slot: make(chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.slot <- struct{}{}
	}
	return p
}

// get returns an idle channel or opens a new one within the bound,
// blocking until either is possible or ctx is cancelled.
func (p *channelPool) get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch := <-p.idle:
		if !ch.IsClosed() {
			return ch, nil
		}
		// replace the dead idle channel under the same slot
		return p.reopen()
	default:
	}

	select {
	case ch := <-p.idle:
		if !ch.IsClosed() {
			return ch, nil
		}
		return p.reopen()
	case <-p.slot:
		ch, err := p.open()
		if err != nil {
			p.slot <- struct{}{}
			return nil, err
		}
		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// put returns a healthy channel to the pool.
func (p *channelPool) put(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		p.discard(ch)
		return
	}
	select {
	case p.idle <- ch:
	default:
		// idle buffer full, close the surplus channel
		_ = ch.Close()
		p.release()
	}
}

// discard drops a channel after a failed operation so the next borrower
// gets a fresh one.
func (p *channelPool) discard(ch *amqp.Channel) {
	if ch != nil {
		_ = ch.Close()
	}
	p.release()
}

func (p *channelPool) release() {
	select {
	case p.slot <- struct{}{}:
	default:
	}
}

// reopen replaces a dead idle channel, giving its slot back on failure.
func (p *channelPool) reopen() (*amqp.Channel, error) {
	ch, err := p.open()
	if err != nil {
		p.release()
		return nil, err
	}
	return ch, nil
}

func (p *channelPool) open() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

// close drains and closes all idle channels.
func (p *channelPool) close() {
	for {
		select {
		case ch := <-p.idle:
			_ = ch.Close()
		default:
			return
		}
	}
}
