package usuario

import "testing"

func TestParseCargo(t *testing.T) {
	casos := []struct {
		raw      string
		esperado Cargo
	}{
		{"PROFESSOR", CargoProfessor},
		{"professor", CargoProfessor},
		{" Coordenador ", CargoCoordenador},
		{"ESPECIALISTA", CargoEspecialista},
		{"DIRETOR", CargoDiretor},
		{"ADMINISTRADOR", CargoAdministrador},
		{"ADMIN", CargoAdministrador},
	}

	for _, tc := range casos {
		cargo, err := ParseCargo(tc.raw)
		if err != nil {
			t.Fatalf("%q: erro inesperado: %v", tc.raw, err)
		}
		if cargo != tc.esperado {
			t.Fatalf("%q: esperado %s, veio %s", tc.raw, tc.esperado, cargo)
		}
	}
}

func TestParseCargoDesconhecido(t *testing.T) {
	if _, err := ParseCargo("ESTAGIARIO"); err == nil {
		t.Fatal("cargo desconhecido deveria falhar, nunca ser coagido para default")
	}
	if _, err := ParseCargo(""); err == nil {
		t.Fatal("cargo vazio deveria falhar")
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("cancelado")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if status != StatusCancelado {
		t.Fatalf("esperado CANCELADO, veio %s", status)
	}

	if _, err := ParseStatus("SUSPENSO"); err == nil {
		t.Fatal("status desconhecido deveria falhar")
	}
}
