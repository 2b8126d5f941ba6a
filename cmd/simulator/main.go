package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the registration payload of the vehicles endpoint.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	VIN   string `json:"vin,omitempty"`
}

// ServiceRecord is the payload of the completed-records endpoint.
type ServiceRecord struct {
	Date           string `json:"date"`
	Mileage        int    `json:"mileage"`
	ServiceType    string `json:"service_type"`
	Description    string `json:"description,omitempty"`
	WorksPerformed string `json:"works_performed,omitempty"`
}

var fleet = []Vehicle{
	{Make: "Toyota", Model: "Corolla"},
	{Make: "Toyota", Model: "Camry"},
	{Make: "Honda", Model: "Civic"},
	{Make: "Ford", Model: "Focus"},
	{Make: "Volkswagen", Model: "Golf"},
	{Make: "Lada", Model: "Vesta"},
	{Make: "Kia", Model: "Rio"},
	{Make: "Hyundai", Model: "Solaris"},
}

var serviceTypes = []struct {
	label string
	works string
}{
	{"Oil change", "Engine oil and oil filter replaced"},
	{"Brake service", "Front pads replaced, discs measured"},
	{"Tire rotation", "Tires rotated and balanced"},
	{"Filter replacement", "Air and cabin filters replaced"},
	{"Diagnostics", "Computer diagnostics, no fault codes"},
	{"Scheduled maintenance", "Scheduled service per manufacturer checklist"},
}

// Seeder posts vehicles and their service history to the API.
type Seeder struct {
	APIURL string
	Token  string
	Client *http.Client
	Rand   *rand.Rand
	Now    func() time.Time
}

func (s *Seeder) post(path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, s.APIURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("POST %s failed with status: %d", path, resp.StatusCode)
	}
	if out != nil && resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateVehicle registers a random vehicle from the fleet table and returns its id.
func (s *Seeder) CreateVehicle() (string, error) {
	v := fleet[s.Rand.Intn(len(fleet))]
	v.Year = 2012 + s.Rand.Intn(12)

	var created struct {
		ID string `json:"id"`
	}
	if err := s.post("/vehicles", v, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("invalid vehicle ID in response")
	}

	log.WithFields(log.Fields{
		"vehicle_id": created.ID,
		"make":       v.Make,
		"model":      v.Model,
		"year":       v.Year,
	}).Info("Created vehicle")
	return created.ID, nil
}

// History builds count completed services in chronological order, ending before now.
func (s *Seeder) History(count int) []ServiceRecord {
	now := s.Now().UTC()
	date := now.AddDate(-count, 0, 0)
	mileage := 20000 + s.Rand.Intn(60000)

	records := make([]ServiceRecord, 0, count)
	for i := 0; i < count; i++ {
		st := serviceTypes[s.Rand.Intn(len(serviceTypes))]
		records = append(records, ServiceRecord{
			Date:           date.Format(time.DateOnly),
			Mileage:        mileage,
			ServiceType:    st.label,
			WorksPerformed: st.works,
		})
		date = date.AddDate(0, 3+s.Rand.Intn(7), s.Rand.Intn(28))
		if !date.Before(now) {
			break
		}
		mileage += 5000 + s.Rand.Intn(10000)
	}
	return records
}

// SeedVehicle registers one vehicle and posts its history. It returns the number
// of records stored.
func (s *Seeder) SeedVehicle(historySize int) (int, error) {
	vehicleID, err := s.CreateVehicle()
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, rec := range s.History(historySize) {
		if err := s.post("/vehicles/"+vehicleID+"/records", rec, nil); err != nil {
			log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to post service record")
			continue
		}
		stored++
	}
	log.WithFields(log.Fields{"vehicle_id": vehicleID, "records": stored}).Info("Seeded service history")
	return stored, nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	fleetSize := envInt("FLEET_SIZE", 5)
	historySize := envInt("SIM_HISTORY", 4)

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	seeder := &Seeder{
		APIURL: apiURL,
		Token:  os.Getenv("SIM_AUTH_TOKEN"),
		Client: &http.Client{Timeout: 10 * time.Second},
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:    time.Now,
	}

	log.WithFields(log.Fields{
		"fleet_size":   fleetSize,
		"history_size": historySize,
		"api_url":      apiURL,
	}).Info("Seeding maintenance history")

	vehicles, records := 0, 0
	for i := 0; i < fleetSize; i++ {
		n, err := seeder.SeedVehicle(historySize)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		vehicles++
		records += n
	}

	log.WithFields(log.Fields{"vehicles": vehicles, "records": records}).Info("Seeding completed")
	if vehicles == 0 {
		log.Error("No vehicles created. Ensure SIM_AUTH_TOKEN is valid and API is reachable.")
		os.Exit(1)
	}
}
