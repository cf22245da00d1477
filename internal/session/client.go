// Package session holds per-connection server state: the Client Record
// (identity, status, owned vehicles) and the Registry that tracks the set
// of currently connected clients.
//
// Ownership: the Registry holds a strong *Client in its map. The dispatcher
// is handed a weak.Pointer[Client] and upgrades it for the duration of a
// single packet, tolerating a nil upgrade if the client was removed (and
// later garbage collected) in the meantime. The Registry is not the only
// strong holder: the network layer's Conn and Hub also keep a strong
// *Client while the connection is open, and ForEachClient hands callbacks
// (such as the heartbeat's player-list builder) strong pointers.
package session

import "sync"

// Client is one connected game instance's server-side state.
//
// workMu serializes Dispatch calls against this record: spec.md §5
// requires that packet handling appear serialized per client even if the
// transport layer somehow delivers two packets concurrently. Callers
// (internal/dispatch) hold workMu for the duration of one Dispatch call;
// vehicles/unicycleID/status are otherwise unsynchronized because they are
// only ever touched while workMu is held.
type Client struct {
	ID     uint32
	Name   string
	Roles  string
	Status int32 // -1 = pending removal, >= 0 live

	workMu     sync.Mutex
	vehicles   map[int]string
	unicycleID int
}

// New creates a Client with no vehicles and no designated unicycle.
func New(id uint32, name, roles string) *Client {
	return &Client{
		ID:         id,
		Name:       name,
		Roles:      roles,
		Status:     0,
		vehicles:   make(map[int]string),
		unicycleID: -1,
	}
}

// Lock acquires the per-client serialization mutex. Dispatch must hold
// this for the duration of handling one packet.
func (c *Client) Lock() { c.workMu.Lock() }

// Unlock releases the per-client serialization mutex.
func (c *Client) Unlock() { c.workMu.Unlock() }

// CarCount returns the number of vehicles currently owned by this client.
// Callers must hold Lock.
func (c *Client) CarCount() int {
	return len(c.vehicles)
}

// GetCarData returns the serialized config for vid, or "" if vid is not
// owned by this client. Callers must hold Lock.
func (c *Client) GetCarData(vid int) string {
	return c.vehicles[vid]
}

// SetCarData overwrites the serialized config for an already-owned vid.
// Callers must hold Lock.
func (c *Client) SetCarData(vid int, data string) {
	c.vehicles[vid] = data
}

// AddNewCar registers a brand-new vehicle under vid. Callers must hold Lock.
func (c *Client) AddNewCar(vid int, data string) {
	c.vehicles[vid] = data
}

// DeleteCar removes vid from this client's vehicles and clears the
// designated unicycle if it pointed at vid (spec.md §3 invariant).
// Callers must hold Lock.
func (c *Client) DeleteCar(vid int) {
	delete(c.vehicles, vid)
	if c.unicycleID == vid {
		c.unicycleID = -1
	}
}

// ClearCars removes all vehicles and clears the unicycle designation.
// Called by the Registry when a client disconnects. Callers must hold Lock.
func (c *Client) ClearCars() {
	c.vehicles = make(map[int]string)
	c.unicycleID = -1
}

// EachVehicle invokes fn once per currently owned (vid, data) pair, in no
// particular order. Callers must hold Lock; fn must not call back into
// methods that also require Lock.
func (c *Client) EachVehicle(fn func(vid int, data string)) {
	for vid, data := range c.vehicles {
		fn(vid, data)
	}
}

// GetOpenCarID returns the smallest non-negative integer not currently
// in use as a vehicle id for this client. Callers must hold Lock.
func (c *Client) GetOpenCarID() int {
	for id := 0; ; id++ {
		if _, taken := c.vehicles[id]; !taken {
			return id
		}
	}
}

// UnicycleID returns the currently designated unicycle vehicle id, or -1
// if none is designated. Callers must hold Lock.
func (c *Client) UnicycleID() int {
	return c.unicycleID
}

// SetUnicycleID designates vid as this client's unicycle (or clears the
// designation when vid is -1). Callers must hold Lock.
func (c *Client) SetUnicycleID(vid int) {
	c.unicycleID = vid
}
