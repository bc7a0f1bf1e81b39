package tracker

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployments.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenMissingFileYieldsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	if got := s.GetAllDeployments(); len(got) != 0 {
		t.Errorf("GetAllDeployments = %v, want empty", got)
	}
}

func TestSaveAndGetDeployment(t *testing.T) {
	s := newTestStore(t)
	d := &Deployment{DeploymentID: "acme-api-42", PRNumber: 42, Status: StatusBuilding}
	if err := s.SaveDeployment(d); err != nil {
		t.Fatalf("SaveDeployment: %v", err)
	}

	got, err := s.GetDeployment("acme-api-42")
	if err != nil {
		t.Fatalf("GetDeployment: %v", err)
	}
	if got.PRNumber != 42 || got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("got = %+v", got)
	}
}

func TestGetDeploymentNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetDeployment("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDeployment(t *testing.T) {
	s := newTestStore(t)
	_ = s.SaveDeployment(&Deployment{DeploymentID: "x"})
	if err := s.DeleteDeployment("x"); err != nil {
		t.Fatalf("DeleteDeployment: %v", err)
	}
	if _, err := s.GetDeployment("x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted deployment to be gone")
	}
}

func TestPersistenceReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments.json")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s1.SaveDeployment(&Deployment{DeploymentID: "a-1", PRNumber: 1}); err != nil {
		t.Fatalf("SaveDeployment: %v", err)
	}
	if _, err := s1.AllocatePorts("a-1", nil); err != nil {
		t.Fatalf("AllocatePorts: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d, err := s2.GetDeployment("a-1")
	if err != nil {
		t.Fatalf("GetDeployment after reload: %v", err)
	}
	if d.PRNumber != 1 {
		t.Errorf("PRNumber after reload = %d, want 1", d.PRNumber)
	}
	alloc, err := s2.AllocatePorts("a-1", nil)
	if err != nil {
		t.Fatalf("AllocatePorts after reload: %v", err)
	}
	if alloc.ExposedAppPort != appPortBase || alloc.ExposedDBPort != dbPortBase {
		t.Errorf("alloc after reload = %+v, want base ports (idempotent)", alloc)
	}
}

func TestAllocatePortsIdempotent(t *testing.T) {
	s := newTestStore(t)
	first, err := s.AllocatePorts("a-1", nil)
	if err != nil {
		t.Fatalf("AllocatePorts: %v", err)
	}
	second, err := s.AllocatePorts("a-1", nil)
	if err != nil {
		t.Fatalf("AllocatePorts (second): %v", err)
	}
	if *first != *second {
		t.Errorf("allocation not idempotent: %+v vs %+v", first, second)
	}
}

func TestAllocatePortsSkipsTaken(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AllocatePorts("a-1", nil); err != nil {
		t.Fatalf("AllocatePorts a-1: %v", err)
	}
	alloc2, err := s.AllocatePorts("b-2", nil)
	if err != nil {
		t.Fatalf("AllocatePorts b-2: %v", err)
	}
	if alloc2.ExposedAppPort != appPortBase+1 || alloc2.ExposedDBPort != dbPortBase+1 {
		t.Errorf("alloc2 = %+v, want {%d,%d}", alloc2, appPortBase+1, dbPortBase+1)
	}

	alloc3, err := s.AllocatePorts("c-3", []int{appPortBase + 2})
	if err != nil {
		t.Fatalf("AllocatePorts c-3: %v", err)
	}
	if alloc3.ExposedAppPort != appPortBase+3 {
		t.Errorf("alloc3.ExposedAppPort = %d, want %d (skip excluded)", alloc3.ExposedAppPort, appPortBase+3)
	}
}

func TestReleasePortsFreesSlot(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AllocatePorts("a-1", nil); err != nil {
		t.Fatalf("AllocatePorts: %v", err)
	}
	if err := s.ReleasePorts("a-1"); err != nil {
		t.Fatalf("ReleasePorts: %v", err)
	}
	alloc, err := s.AllocatePorts("b-2", nil)
	if err != nil {
		t.Fatalf("AllocatePorts b-2: %v", err)
	}
	if alloc.ExposedAppPort != appPortBase {
		t.Errorf("ExposedAppPort = %d, want base %d reused after release", alloc.ExposedAppPort, appPortBase)
	}
}

func TestAllocatePortsExhausted(t *testing.T) {
	s := newTestStore(t)
	exclude := make([]int, 0, maxPort-appPortBase+1)
	for p := appPortBase; p <= maxPort; p++ {
		exclude = append(exclude, p)
	}
	if _, err := s.AllocatePorts("a-1", exclude); !errors.Is(err, ErrPortsExhausted) {
		t.Fatalf("err = %v, want ErrPortsExhausted", err)
	}
}
