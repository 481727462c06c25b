package ga

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yipai/yipai/pkg/errors"
	"github.com/yipai/yipai/pkg/model"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return tm
}

func window(t *testing.T, start, end string) model.TimeRange {
	t.Helper()
	return model.TimeRange{Start: mustTime(t, start), End: mustTime(t, end)}
}

func newStaff(name string, roles ...model.Role) *model.Staff {
	return &model.Staff{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    "active",
		Roles:     roles,
	}
}

func newUnit(t *testing.T, name, start, end string, role model.Role, headcount int) *model.Unit {
	t.Helper()
	return &model.Unit{
		BaseModel:    model.NewBaseModel(),
		Kind:         model.UnitShift,
		Name:         name,
		Window:       window(t, start, end),
		RequiredRole: role,
		Headcount:    headcount,
	}
}

// seatTriple 用于比较方案的结构等价性
type seatTriple struct {
	unitID uuid.UUID
	seat   int
	staff  string
}

func planTriples(plan []*model.Assignment) []seatTriple {
	out := make([]seatTriple, 0, len(plan))
	for _, a := range plan {
		staff := ""
		if a.StaffID != nil {
			staff = a.StaffID.String()
		}
		out = append(out, seatTriple{unitID: a.UnitID, seat: a.Seat, staff: staff})
	}
	return out
}

func TestCodec_RoundTrip(t *testing.T) {
	nurseA := newStaff("甲", model.RoleNurse)
	nurseB := newStaff("乙", model.RoleNurse)
	doctor := newStaff("丙", model.RoleDoctor)

	ward := newUnit(t, "病房班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 2)
	clinic := newUnit(t, "门诊班", "2025-04-01 09:00", "2025-04-01 12:00", model.RoleDoctor, 1)

	staff := []*model.Staff{nurseA, nurseB, doctor}
	units := []*model.Unit{ward, clinic}
	codec := NewCodec(staff, units, nil)

	if codec.Length() != 3 {
		t.Fatalf("Length() = %d, want 3", codec.Length())
	}

	// 构造一个含未分配席位的方案并验证往返律
	original := codec.Decode([]int{0, Unassigned, 2})

	genes, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode() 失败: %v", err)
	}
	decoded := codec.Decode(genes)

	got, want := planTriples(decoded), planTriples(original)
	if len(got) != len(want) {
		t.Fatalf("方案长度 = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("席位 %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCodec_FixedAssignmentsExcluded(t *testing.T) {
	nurseA := newStaff("甲", model.RoleNurse)
	nurseB := newStaff("乙", model.RoleNurse)
	ward := newUnit(t, "病房班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 2)

	// 席位 0 已有既定分配
	fixedID := nurseA.ID
	fixed := []*model.Assignment{{
		BaseModel: model.NewBaseModel(),
		UnitID:    ward.ID,
		Seat:      0,
		StaffID:   &fixedID,
		Fixed:     true,
	}}

	codec := NewCodec([]*model.Staff{nurseA, nurseB}, []*model.Unit{ward}, fixed)

	// 既定席位不进入基因序列
	if codec.Length() != 1 {
		t.Fatalf("Length() = %d, want 1", codec.Length())
	}

	// 解码时既定分配合并回方案
	plan := codec.Decode([]int{1})
	if len(plan) != 2 {
		t.Fatalf("方案长度 = %d, want 2", len(plan))
	}
	if !plan[0].Fixed || plan[0].StaffID == nil || *plan[0].StaffID != nurseA.ID {
		t.Error("席位 0 应为既定分配且指向甲")
	}
	if plan[1].Fixed || plan[1].StaffID == nil || *plan[1].StaffID != nurseB.ID {
		t.Error("席位 1 应为优化决策且指向乙")
	}
}

func TestCodec_DecodeUnassigned(t *testing.T) {
	nurse := newStaff("甲", model.RoleNurse)
	ward := newUnit(t, "病房班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 1)
	codec := NewCodec([]*model.Staff{nurse}, []*model.Unit{ward}, nil)

	// 未分配基因解码为显式空席位，而不是失败
	plan := codec.Decode([]int{Unassigned})
	if len(plan) != 1 {
		t.Fatalf("方案长度 = %d, want 1", len(plan))
	}
	if plan[0].IsFilled() {
		t.Error("未分配席位的 StaffID 应为 nil")
	}
	if plan[0].UnitID != ward.ID || plan[0].Seat != 0 {
		t.Error("空席位仍应标明单元和席位")
	}
}

func TestCodec_EncodeRejectsForeignPlan(t *testing.T) {
	nurse := newStaff("甲", model.RoleNurse)
	ward := newUnit(t, "病房班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 1)
	codec := NewCodec([]*model.Staff{nurse}, []*model.Unit{ward}, nil)

	// 未知单元
	_, err := codec.Encode([]*model.Assignment{{UnitID: uuid.New(), Seat: 0}})
	if !errors.Is(err, errors.CodeEncodingMismatch) {
		t.Errorf("未知单元应返回 ENCODING_MISMATCH, got %v", err)
	}

	// 未知人员
	foreign := uuid.New()
	_, err = codec.Encode([]*model.Assignment{{UnitID: ward.ID, Seat: 0, StaffID: &foreign}})
	if !errors.Is(err, errors.CodeEncodingMismatch) {
		t.Errorf("未知人员应返回 ENCODING_MISMATCH, got %v", err)
	}
}

func TestCodec_CandidatesRespectEligibility(t *testing.T) {
	nurse := newStaff("甲", model.RoleNurse)
	doctor := newStaff("乙", model.RoleDoctor)
	busy := newStaff("丙", model.RoleNurse)
	busy.Availability = []model.TimeRange{window(t, "2025-04-02 08:00", "2025-04-02 16:00")}

	ward := newUnit(t, "病房班", "2025-04-01 08:00", "2025-04-01 16:00", model.RoleNurse, 1)
	codec := NewCodec([]*model.Staff{nurse, doctor, busy}, []*model.Unit{ward}, nil)

	candidates := codec.Candidates(0)
	if len(candidates) != 1 || candidates[0] != 0 {
		t.Errorf("候选人应只有甲(下标 0), got %v", candidates)
	}
}
