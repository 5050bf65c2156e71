package wire

import (
	"strconv"

	"github.com/foliodb/folio/pkg/model"
)

// Get returns the string value of key and whether it existed.
func (c *Client) Get(key string) (string, bool, error) {
	reply, err := c.Do("GET", key)
	if err != nil {
		return "", false, err
	}
	if reply.Kind == ErrorReply {
		return "", false, &model.RemoteError{Message: reply.ErrMsg}
	}
	if reply.BulkNull {
		return "", false, nil
	}
	return string(reply.Bulk), true, nil
}

// Set stores key=val unconditionally.
func (c *Client) Set(key, val string) error {
	reply, err := c.Do("SET", key, val)
	if err != nil {
		return err
	}
	return errIfErrorReply(reply)
}

// Del removes zero or more keys and returns the count removed.
func (c *Client) Del(keys ...string) (int64, error) {
	reply, err := c.Do(append([]string{"DEL"}, keys...)...)
	if err != nil {
		return 0, err
	}
	if reply.Kind == ErrorReply {
		return 0, &model.RemoteError{Message: reply.ErrMsg}
	}
	return reply.Int, nil
}

// HSet stores a set of field/value pairs in hash key.
func (c *Client) HSet(key string, fields map[string]string) error {
	args := []string{"HSET", key}
	for f, v := range fields {
		args = append(args, f, v)
	}
	reply, err := c.Do(args...)
	if err != nil {
		return err
	}
	return errIfErrorReply(reply)
}

// HGetAll returns every field/value pair of hash key.
func (c *Client) HGetAll(key string) (map[string]string, error) {
	reply, err := c.Do("HGETALL", key)
	if err != nil {
		return nil, err
	}
	if reply.Kind == ErrorReply {
		return nil, &model.RemoteError{Message: reply.ErrMsg}
	}
	out := make(map[string]string, len(reply.Array)/2)
	for i := 0; i+1 < len(reply.Array); i += 2 {
		out[string(reply.Array[i].Bulk)] = string(reply.Array[i+1].Bulk)
	}
	return out, nil
}

// SAdd adds members to set key, returning the number newly added.
func (c *Client) SAdd(key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	reply, err := c.Do(append([]string{"SADD", key}, members...)...)
	if err != nil {
		return 0, err
	}
	if reply.Kind == ErrorReply {
		return 0, &model.RemoteError{Message: reply.ErrMsg}
	}
	return reply.Int, nil
}

// SRem removes members from set key, returning the number removed.
func (c *Client) SRem(key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	reply, err := c.Do(append([]string{"SREM", key}, members...)...)
	if err != nil {
		return 0, err
	}
	if reply.Kind == ErrorReply {
		return 0, &model.RemoteError{Message: reply.ErrMsg}
	}
	return reply.Int, nil
}

// SMembers returns every member of set key.
func (c *Client) SMembers(key string) ([]string, error) {
	reply, err := c.Do("SMEMBERS", key)
	if err != nil {
		return nil, err
	}
	if reply.Kind == ErrorReply {
		return nil, &model.RemoteError{Message: reply.ErrMsg}
	}
	out := make([]string, len(reply.Array))
	for i, item := range reply.Array {
		out[i] = string(item.Bulk)
	}
	return out, nil
}

// ZItem is one scored member of a sorted set.
type ZItem struct {
	Score  float64
	Member string
}

// ZAdd adds or updates member's score in sorted set key.
func (c *Client) ZAdd(key string, score float64, member string) error {
	reply, err := c.Do("ZADD", key, formatScore(score), member)
	if err != nil {
		return err
	}
	return errIfErrorReply(reply)
}

// ZRem removes members from sorted set key.
func (c *Client) ZRem(key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	reply, err := c.Do(append([]string{"ZREM", key}, members...)...)
	if err != nil {
		return 0, err
	}
	if reply.Kind == ErrorReply {
		return 0, &model.RemoteError{Message: reply.ErrMsg}
	}
	return reply.Int, nil
}

// ZRemRangeByScore removes every member scored in [min, max].
func (c *Client) ZRemRangeByScore(key string, min, max float64) (int64, error) {
	reply, err := c.Do("ZREMRANGEBYSCORE", key, formatScore(min), formatScore(max))
	if err != nil {
		return 0, err
	}
	if reply.Kind == ErrorReply {
		return 0, &model.RemoteError{Message: reply.ErrMsg}
	}
	return reply.Int, nil
}

// ZRangeByScore returns members scored in [min, max] ascending,
// capped at limit (0 means unlimited).
func (c *Client) ZRangeByScore(key string, min, max float64, limit int) ([]ZItem, error) {
	args := []string{"ZRANGEBYSCORE", key, formatScore(min), formatScore(max), "WITHSCORES"}
	if limit > 0 {
		args = append(args, "LIMIT", "0", strconv.Itoa(limit))
	}
	return c.zRange(args)
}

// ZRevRangeByScore returns members scored in [max, min] descending
// (note the reversed argument order vs ZRangeByScore, matching the
// underlying protocol), capped at limit.
func (c *Client) ZRevRangeByScore(key string, max, min float64, limit int) ([]ZItem, error) {
	args := []string{"ZREVRANGEBYSCORE", key, formatScore(max), formatScore(min), "WITHSCORES"}
	if limit > 0 {
		args = append(args, "LIMIT", "0", strconv.Itoa(limit))
	}
	return c.zRange(args)
}

func (c *Client) zRange(args []string) ([]ZItem, error) {
	reply, err := c.Do(args...)
	if err != nil {
		return nil, err
	}
	if reply.Kind == ErrorReply {
		return nil, &model.RemoteError{Message: reply.ErrMsg}
	}
	out := make([]ZItem, 0, len(reply.Array)/2)
	for i := 0; i+1 < len(reply.Array); i += 2 {
		score, err := strconv.ParseFloat(string(reply.Array[i+1].Bulk), 64)
		if err != nil {
			protoErr := &model.ProtocolError{Detail: "malformed zset score: " + err.Error()}
			logWireError(c.addr, "zrange", protoErr)
			return nil, protoErr
		}
		out = append(out, ZItem{Member: string(reply.Array[i].Bulk), Score: score})
	}
	return out, nil
}

func formatScore(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func errIfErrorReply(r Reply) error {
	if r.Kind == ErrorReply {
		return &model.RemoteError{Message: r.ErrMsg}
	}
	return nil
}
