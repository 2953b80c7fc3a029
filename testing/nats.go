package testing

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/meshbal/types"
)

const readyTimeout = 5 * time.Second

// StartEmbeddedNATS starts an in-process JetStream server and connects to it.
//
// JetStream data lives under t.TempDir() and the server binds a random
// loopback port, so parallel tests each get their own server. Both are shut
// down when the test finishes.
//
// Parameters:
//   - t: Test handle used for cleanup and failures
//
// Returns:
//   - *server.Server: The running server
//   - *nats.Conn: A client connected to it
//
// Example:
//
//	_, nc := meshtest.StartEmbeddedNATS(t)
//	js, _ := jetstream.New(nc)
//	b, _ := meshbal.NewBalancer(&cfg, 0, m, w, meshbal.WithJetStream(js))
func StartEmbeddedNATS(t testing.TB) (*server.Server, *nats.Conn) {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		ServerName: "meshbal-test",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		JetStream:  true,
		StoreDir:   t.TempDir(),
		NoLog:      true,
		NoSigs:     true,
	})
	fatalIf(t, err, "create embedded server")

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		t.Fatalf("embedded server not ready after %v", readyTimeout)
	}

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Name("meshbal-test"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		ns.Shutdown()
		fatalIf(t, err, "connect to embedded server")
	}

	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, nc
}

// CreatePlanBucket creates a memory-backed plan bucket with a one-minute TTL.
//
// Parameters:
//   - t: Test handle
//   - nc: Connection from StartEmbeddedNATS
//   - bucketName: KV bucket name
//
// Returns:
//   - jetstream.KeyValue: The new bucket
func CreatePlanBucket(t testing.TB, nc *nats.Conn, bucketName string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	fatalIf(t, err, "open JetStream")

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: "meshbal test plans",
		History:     1,
		TTL:         time.Minute,
		Storage:     jetstream.MemoryStorage,
	})
	fatalIf(t, err, "create plan bucket "+bucketName)

	return kv
}

// ReadPlans decodes every plan record stored under prefix, keyed by source partition.
//
// Keys that do not look like "<prefix>.<partition>" are ignored.
func ReadPlans(t testing.TB, kv jetstream.KeyValue, prefix string) map[types.PartID]types.PlanRecord {
	t.Helper()

	out := make(map[types.PartID]types.PlanRecord)

	keys, err := kv.Keys(t.Context())
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return out
	}
	fatalIf(t, err, "list plan keys")

	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, prefix+".")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			continue
		}

		entry, err := kv.Get(t.Context(), key)
		fatalIf(t, err, "get "+key)

		var rec types.PlanRecord
		fatalIf(t, json.Unmarshal(entry.Value(), &rec), "decode "+key)
		out[types.PartID(id)] = rec
	}

	return out
}

func fatalIf(t testing.TB, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}
