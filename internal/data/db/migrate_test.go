package db

import (
	"testing"

	types "github.com/openacademy/trilhas-backend/internal/domain"
)

func TestCertificateInscriptionIsUnique(t *testing.T) {
	svc := newTestService(t)
	gdb := svc.DB()

	first := &types.Certificate{ID: "c1", UserID: "u1", InscriptionID: "i1"}
	if err := gdb.Create(first).Error; err != nil {
		t.Fatalf("first certificate: %v", err)
	}
	dup := &types.Certificate{ID: "c2", UserID: "u1", InscriptionID: "i1"}
	if err := gdb.Create(dup).Error; err == nil {
		t.Fatalf("second certificate for the same inscription was accepted")
	}

	for _, id := range []string{"legacy-1", "legacy-2"} {
		if err := gdb.Create(&types.Certificate{ID: id, UserID: "u1"}).Error; err != nil {
			t.Fatalf("certificate %s without inscription: %v", id, err)
		}
	}
}
