package services

import (
	"context"
	"testing"

	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func pendingOn(t *testing.T, db *gorm.DB, temp *models.TempCollege, student string) *models.Application {
	t.Helper()
	app := &models.Application{
		StudentID:          student,
		StudentName:        "Student " + student,
		PendingCollegeID:   &temp.ID,
		PendingCollegeName: temp.Name,
		InternshipType:     models.SummerInternship,
		DurationValue:      6,
		DurationType:       "weeks",
		PaymentStatus:      models.PaymentPending,
		Status:             models.StatusPending,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func TestCreateCollegeUniqueName(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	c, err := CreateCollege(ctx, db, models.CollegeDetails{Name: " Punjab Engineering College ", City: "Chandigarh"})
	require.NoError(t, err)
	assert.Equal(t, "Punjab Engineering College", c.Name)

	_, err = CreateCollege(ctx, db, models.CollegeDetails{Name: "Punjab Engineering College"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = CreateCollege(ctx, db, models.CollegeDetails{})
	assert.ErrorIs(t, err, ErrInvalid)

	list, err := ListColleges(ctx, db)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPromoteTempCollege(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	temp, err := CreateTempCollege(ctx, db, models.CollegeDetails{
		Name:      "New Polytechnic",
		City:      "Patiala",
		Faculties: []models.Faculty{{Name: "Chemical", Emails: []string{"chem@np.edu"}}},
	}, "stu-1")
	require.NoError(t, err)
	app := pendingOn(t, db, temp, "stu-1")

	master, relinked, err := PromoteTempCollege(ctx, db, temp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), relinked)
	assert.Equal(t, "New Polytechnic", master.Name)
	require.Len(t, master.Faculties, 1)

	var after models.Application
	require.NoError(t, db.First(&after, "id = ?", app.ID).Error)
	assert.Equal(t, "New Polytechnic", after.CollegeName)
	assert.Nil(t, after.PendingCollegeID)
	assert.Empty(t, after.PendingCollegeName)
	assert.Equal(t, app.Version+1, after.Version)

	pending, err := ListTempColleges(ctx, db, models.TempCollegePending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, _, err = PromoteTempCollege(ctx, db, temp.ID)
	assert.ErrorIs(t, err, ErrResolved)

	_, _, err = PromoteTempCollege(ctx, db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPromoteRefusesExistingName(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	testdb.College(t, db, "Government Engineering College")

	temp, err := CreateTempCollege(ctx, db, models.CollegeDetails{Name: "Government Engineering College"}, "stu-1")
	require.NoError(t, err)

	_, _, err = PromoteTempCollege(ctx, db, temp.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	var still models.TempCollege
	require.NoError(t, db.First(&still, "id = ?", temp.ID).Error)
	assert.Equal(t, models.TempCollegePending, still.Status)
}

func TestMergeTempCollege(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	master, err := CreateCollege(ctx, db, models.CollegeDetails{
		Name:          "Government Engineering College",
		City:          "Bathinda",
		PrincipalName: "Dr. Singh",
		Faculties:     []models.Faculty{{Name: "Mechanical"}},
	})
	require.NoError(t, err)

	temp, err := CreateTempCollege(ctx, db, models.CollegeDetails{
		Name:           "Govt. Engg. College Bathinda",
		City:           "Bathinda",
		Address:        "Dabwali Road",
		PrincipalName:  "Dr. R. Singh",
		PrincipalEmail: "principal@gec.edu",
		Faculties:      []models.Faculty{{Name: "mechanical"}, {Name: "Electrical", Emails: []string{"ee@gec.edu"}}},
	}, "stu-2")
	require.NoError(t, err)
	a := pendingOn(t, db, temp, "stu-2")
	b := pendingOn(t, db, temp, "stu-3")

	result, err := MergeTempCollege(ctx, db, temp.ID, master.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Relinked)
	assert.Equal(t, []string{"Electrical"}, result.AddedFaculties)

	fields := map[string]FieldDiff{}
	for _, d := range result.Diff {
		fields[d.Field] = d
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "address")
	assert.Contains(t, fields, "principalName")
	assert.NotContains(t, fields, "city")

	merged, err := GetCollege(ctx, db, master.ID)
	require.NoError(t, err)
	assert.Equal(t, "Government Engineering College", merged.Name)
	assert.Equal(t, "Dabwali Road", merged.Address)
	assert.Equal(t, "Dr. Singh", merged.PrincipalName)
	assert.Equal(t, "principal@gec.edu", merged.PrincipalEmail)
	assert.Len(t, merged.Faculties, 2)

	for _, id := range []string{a.ID, b.ID} {
		var app models.Application
		require.NoError(t, db.First(&app, "id = ?", id).Error)
		assert.Equal(t, "Government Engineering College", app.CollegeName)
		assert.Nil(t, app.PendingCollegeID)
	}

	_, err = MergeTempCollege(ctx, db, temp.ID, master.ID)
	assert.ErrorIs(t, err, ErrResolved)
}

func TestMergeIntoMissingMaster(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	temp, err := CreateTempCollege(ctx, db, models.CollegeDetails{Name: "Somewhere"}, "adm-1")
	require.NoError(t, err)

	_, err = MergeTempCollege(ctx, db, temp.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
