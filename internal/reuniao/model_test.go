package reuniao

import "testing"

func TestPodeTransicionar(t *testing.T) {
	casos := []struct {
		de      Status
		para    Status
		permite bool
	}{
		{StatusPendente, StatusAgendada, true},
		{StatusPendente, StatusCancelada, true},
		{StatusPendente, StatusEmAndamento, false},
		{StatusPendente, StatusConcluida, false},
		{StatusAgendada, StatusEmAndamento, true},
		{StatusAgendada, StatusCancelada, true},
		{StatusAgendada, StatusPendente, false},
		{StatusEmAndamento, StatusConcluida, true},
		{StatusEmAndamento, StatusCancelada, true},
		{StatusEmAndamento, StatusAgendada, false},
		{StatusConcluida, StatusCancelada, false},
		{StatusConcluida, StatusEmAndamento, false},
		{StatusCancelada, StatusAgendada, false},
	}

	for _, tc := range casos {
		if got := PodeTransicionar(tc.de, tc.para); got != tc.permite {
			t.Errorf("%s -> %s: esperado %v, veio %v", tc.de, tc.para, tc.permite, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" agendada ")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if status != StatusAgendada {
		t.Fatalf("esperado AGENDADA, veio %s", status)
	}

	if _, err := ParseStatus("ADIADA"); err == nil {
		t.Fatal("status desconhecido deveria falhar")
	}
}
