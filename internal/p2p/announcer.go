package p2p

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	crand "crypto/rand"

	"github.com/google/uuid"
	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	log "github.com/sirupsen/logrus"

	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/state"
)

const (
	announceTopicName = "raffle-announcements"
	privKeyFile       = "node_private_key.hex"
)

// Announcement is the wire form of a round notification, Data is the matching
// event payload from the state package.
type Announcement struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Announcer rebroadcasts round notifications on a gossipsub topic so external
// auditors can follow entries, round starts and winners without polling the API.
type Announcer struct {
	state *state.State
}

func NewAnnouncer(state *state.State) *Announcer {
	return &Announcer{state: state}
}

func (a *Announcer) Start(ctx context.Context) {
	priv, err := loadOrCreatePrivateKey(filepath.Join(config.AppConfig.DbDir, privKeyFile))
	if err != nil {
		log.Fatalf("Failed to load libp2p private key: %v", err)
	}

	listenAddr := fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", config.AppConfig.Libp2pPort)
	node, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(listenAddr),
	)
	if err != nil {
		log.Fatalf("Failed to create libp2p node: %v", err)
	}
	log.Infof("Announcer node started, PeerID %s, listening on %s", node.ID().String(), listenAddr)

	ps, err := pubsub.NewGossipSub(ctx, node, pubsub.WithMessageSignaturePolicy(pubsub.StrictSign))
	if err != nil {
		log.Fatalf("Failed to create gossipsub: %v", err)
	}
	topic, err := ps.Join(announceTopicName)
	if err != nil {
		log.Fatalf("Failed to join announce topic: %v", err)
	}

	for _, addr := range strings.Split(config.AppConfig.Libp2pBootNodes, ",") {
		if addr == "" {
			continue
		}
		connectToBootNode(ctx, node, addr)
	}

	entryCh := make(chan interface{}, 16)
	startCh := make(chan interface{}, 16)
	winnerCh := make(chan interface{}, 16)
	a.state.EventBus.Subscribe(state.EntryRecorded, entryCh)
	a.state.EventBus.Subscribe(state.RoundStarted, startCh)
	a.state.EventBus.Subscribe(state.WinnerSelected, winnerCh)

	for {
		select {
		case data := <-entryCh:
			a.publish(ctx, topic, state.EntryRecorded.String(), data)
		case data := <-startCh:
			a.publish(ctx, topic, state.RoundStarted.String(), data)
		case data := <-winnerCh:
			a.publish(ctx, topic, state.WinnerSelected.String(), data)
		case <-ctx.Done():
			log.Info("Announcer is stopping...")
			a.state.EventBus.Unsubscribe(state.EntryRecorded, entryCh)
			a.state.EventBus.Unsubscribe(state.RoundStarted, startCh)
			a.state.EventBus.Unsubscribe(state.WinnerSelected, winnerCh)
			if err := node.Close(); err != nil {
				log.Errorf("Failed to close libp2p node: %v", err)
			}
			return
		}
	}
}

func (a *Announcer) publish(ctx context.Context, topic *pubsub.Topic, eventType string, data interface{}) {
	payload, err := json.Marshal(Announcement{ID: uuid.New().String(), Type: eventType, Data: data})
	if err != nil {
		log.Errorf("Failed to marshal announcement %s: %v", eventType, err)
		return
	}
	if err := topic.Publish(ctx, payload); err != nil {
		log.Errorf("Failed to publish announcement %s: %v", eventType, err)
		return
	}
	log.Debugf("Announcement published, type %s", eventType)
}

func connectToBootNode(ctx context.Context, node host.Host, addr string) {
	maddr, err := multiaddr.NewMultiaddr(strings.TrimSpace(addr))
	if err != nil {
		log.Warnf("Bad boot node multiaddr %q: %v", addr, err)
		return
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		log.Warnf("Bad boot node addr info %q: %v", addr, err)
		return
	}
	if err := node.Connect(ctx, *info); err != nil {
		log.Warnf("Failed to connect to boot node %s: %v", info.ID, err)
		return
	}
	log.Infof("Connected to boot node %s", info.ID)
}

func loadOrCreatePrivateKey(path string) (crypto.PrivKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		keyBytes, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode private key file: %v", err)
		}
		return crypto.UnmarshalPrivateKey(keyBytes)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	priv, _, err := crypto.GenerateEd25519Key(crand.Reader)
	if err != nil {
		return nil, err
	}
	keyBytes, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(keyBytes)), 0600); err != nil {
		return nil, err
	}
	return priv, nil
}
