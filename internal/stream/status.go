package stream

// Status describes the live state of one camera's stream.
type Status struct {
	CameraID  string `json:"camera_id"`
	Active    bool   `json:"active"`
	Streaming bool   `json:"streaming"`
}

// Status reports whether the camera currently holds an open capture
// handle. It returns store.ErrNotFound for unknown cameras.
func (p *Pipeline) Status(cameraID string) (Status, error) {
	cam, err := p.cameras.GetByID(cameraID)
	if err != nil {
		return Status{}, err
	}

	return Status{
		CameraID:  cameraID,
		Active:    cam.Active,
		Streaming: p.pool.Has(cameraID),
	}, nil
}

// Stop releases the camera's capture handle and pacing state. Stopping a
// camera that is not streaming is a no-op, so the call is idempotent.
func (p *Pipeline) Stop(cameraID string) {
	p.pool.Release(cameraID)
	p.pacer.Forget(cameraID)
}
