package dispatch

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/session"
	"github.com/ambervale/relaycore/internal/vehicle"
)

// dispatchVehicle implements the 'O' vehicle subprotocol (spec.md §4.3):
// packet[1] selects the sub-opcode, packet[3:] is the sub-opcode's payload.
func (d *Dispatcher) dispatchVehicle(c *session.Client, packet []byte) {
	if len(packet) < 4 {
		return
	}
	code := packet[1]
	data := string(packet[3:])

	switch code {
	case 's':
		d.vehicleSpawn(c, data, packet)
	case 'c':
		d.vehicleEdit(c, data, packet)
	case 'd':
		d.vehicleDelete(c, data, packet)
	case 'r':
		d.vehicleReset(c, data, packet)
	case 't':
		d.network.SendToAll(c, packet, false, true)
	default:
		d.logger.Debug("unimplemented vehicle sub-opcode", zap.Uint8("code", code))
	}
}

// shouldSpawn is the car-limit and unicycle-exemption policy of spec.md
// §4.3. A client that already owns a unicycle may spawn one further
// vehicle beyond MaxCars; a unicycle itself is always admitted (and
// claims the client's unicycle slot); otherwise admission is gated by
// MaxCars.
func (d *Dispatcher) shouldSpawn(c *session.Client, carJSON string, id int) bool {
	maxCars := d.settings.Load().MaxCars

	if c.UnicycleID() > -1 && c.CarCount()-1 < maxCars {
		return true
	}
	if vehicle.IsUnicycle(carJSON) {
		c.SetUnicycleID(id)
		return true
	}
	return maxCars > c.CarCount()
}

// vehicleSpawn handles the 'Os' sub-opcode. data is "0:<carJSON>" — the
// leading literal zero is the placeholder the client sends in place of a
// server-assigned vehicle id.
func (d *Dispatcher) vehicleSpawn(c *session.Client, data string, rawPacket []byte) {
	if data == "" || data[0] != '0' {
		return
	}
	if len(rawPacket) < 6 {
		return
	}
	carJSON := string(rawPacket[5:])
	carID := c.GetOpenCarID()

	rebuilt := "Os:" + c.Roles + ":" + c.Name + ":" + strconv.FormatUint(uint64(c.ID), 10) + "-" + strconv.Itoa(carID) + ":" + carJSON

	res := d.script.TriggerEvent("onVehicleSpawn", []any{c.ID, carID, rebuilt[3:]}, true)

	if d.shouldSpawn(c, carJSON, carID) && !vetoed(res) {
		c.AddNewCar(carID, rebuilt)
		d.network.SendToAll(nil, []byte(rebuilt), true, true)
		return
	}

	d.network.Respond(c, []byte(rebuilt), true)
	destroy := "Od:" + strconv.FormatUint(uint64(c.ID), 10) + "-" + strconv.Itoa(carID)
	d.network.Respond(c, []byte(destroy), true)
}

// splitPidVid extracts the leading "<pid>-<vid>" header from data, where
// the vid is delimited by the given terminator (or runs to the end of
// data when term is 0). It returns ok=false if either half is not a pure
// run of ASCII digits, matching the original's find_first_not_of check.
func splitPidVid(data string, term byte) (pid, vid int, ok bool) {
	dash := strings.IndexByte(data, '-')
	if dash < 0 {
		return 0, 0, false
	}
	pidStr := data[:dash]

	var vidStr string
	if term == 0 {
		vidStr = data[dash+1:]
	} else {
		rest := data[dash+1:]
		colon := strings.IndexByte(rest, term)
		if colon < 0 {
			vidStr = rest
		} else {
			vidStr = rest[:colon]
		}
	}

	p, pok := parseDigits(pidStr)
	v, vok := parseDigits(vidStr)
	if !pok || !vok {
		return 0, 0, false
	}
	return p, v, true
}

// vehicleEdit handles the 'Oc' sub-opcode: a delta to apply to an
// existing vehicle's configuration.
func (d *Dispatcher) vehicleEdit(c *session.Client, data string, rawPacket []byte) {
	pid, vid, ok := splitPidVid(data, ':')
	if !ok || pid != int(c.ID) {
		return
	}

	res := d.script.TriggerEvent("onVehicleEdited", []any{c.ID, vid, string(rawPacket[3:])}, true)

	brace := strings.IndexByte(string(rawPacket), '{')
	if brace < 0 {
		brace = 0
	}
	carJSON := string(rawPacket[brace:])

	if (c.UnicycleID() != vid || vehicle.IsUnicycle(carJSON)) && !vetoed(res) {
		d.network.SendToAll(c, rawPacket, false, true)
		d.apply(c, vid, rawPacket)
		return
	}

	if c.UnicycleID() == vid {
		c.SetUnicycleID(-1)
	}
	destroy := "Od:" + strconv.FormatUint(uint64(c.ID), 10) + "-" + strconv.Itoa(vid)
	d.network.Respond(c, []byte(destroy), true)
	c.DeleteCar(vid)
}

// vehicleDelete handles the 'Od' sub-opcode.
func (d *Dispatcher) vehicleDelete(c *session.Client, data string, rawPacket []byte) {
	pid, vid, ok := splitPidVid(data, 0)
	if !ok || pid != int(c.ID) {
		return
	}
	if c.UnicycleID() == vid {
		c.SetUnicycleID(-1)
	}
	d.network.SendToAll(nil, rawPacket, true, true)
	d.script.TriggerEvent("onVehicleDeleted", []any{c.ID, vid}, false)
	c.DeleteCar(vid)
}

// vehicleReset handles the 'Or' sub-opcode.
func (d *Dispatcher) vehicleReset(c *session.Client, data string, rawPacket []byte) {
	pid, vid, ok := splitPidVid(data, ':')
	if !ok || pid != int(c.ID) {
		return
	}
	brace := strings.IndexByte(data, '{')
	var resetData string
	if brace >= 0 {
		resetData = data[brace:]
	}
	d.script.TriggerEvent("onVehicleReset", []any{c.ID, vid, resetData}, false)
	d.network.SendToAll(c, rawPacket, false, true)
}

// apply merges a vehicle-edit packet's trailing JSON into a client's
// stored car data (spec.md §4.4). The stored record is
// "<header>{<json>}"; only the JSON body is replaced by the merge, the
// header is preserved verbatim.
func (d *Dispatcher) apply(c *session.Client, vid int, rawPacket []byte) {
	raw := string(rawPacket)
	brace := strings.IndexByte(raw, '{')
	if brace < 0 {
		d.logger.Error("malformed vehicle packet, no '{' found")
		return
	}
	delta := raw[brace:]

	stored := c.GetCarData(vid)
	if stored == "" {
		d.logger.Error("attempt to apply change to nonexistent vehicle",
			zap.Int("vehicle_id", vid), zap.Uint32("client_id", c.ID),
			zap.String("packet", raw), zap.Int("car_count", c.CarCount()))
		return
	}
	storedBrace := strings.IndexByte(stored, '{')
	if storedBrace < 0 {
		d.logger.Error("malformed stored vehicle record", zap.Int("vehicle_id", vid))
		return
	}
	header := stored[:storedBrace]
	base := stored[storedBrace:]

	merged, err := vehicle.Merge(base, delta)
	if err != nil {
		d.logger.Error("failed to merge vehicle config", zap.Error(err))
		return
	}
	c.SetCarData(vid, header+merged)
}
