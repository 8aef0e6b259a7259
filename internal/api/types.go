// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// =============================================================================
// AUTH REQUEST/RESPONSE TYPES
// =============================================================================

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// HumanChallengeProof is the optional anti-automation proof. Empty when
	// the deployment does not require one; the backend decides.
	HumanChallengeProof string `json:"human_challenge_proof,omitempty"`
}

// LoginResult is the decoded outcome of POST /login.
//
// Exactly one of two shapes comes back on success: a credential with
// profile (200), or a step-up challenge (202) with the principal the
// backend pinned for the second factor.
type LoginResult struct {
	// Set on 200.
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	UserData    Profile `json:"user_data"`

	// Set on 202.
	StepUpRequired  bool   `json:"step_up_required"`
	PinnedPrincipal string `json:"pinned_principal"`
	Message         string `json:"message"`
}

// StepUpRequest is the body for POST /verify-step-up.
type StepUpRequest struct {
	PinnedPrincipal string `json:"pinned_principal"`
	Code            string `json:"code"`
}

// SignupRequest is the body for POST /signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile mirrors the user_data object returned by the backend.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// TELEMETRY TYPES
// =============================================================================

// DeviceRecord is one telemetry sample from a tracked device. Field names
// follow the backend's wire format. The client never mutates these; it
// only filters, orders and caps them for display.
type DeviceRecord struct {
	DeviceID          int     `json:"Device_ID"`
	BatteryLevel      float64 `json:"Battery_Level"`
	SensorTemperature float64 `json:"First_Sensor_temperature"`
	RouteFrom         string  `json:"Route_From"`
	RouteTo           string  `json:"Route_To"`
	Timestamp         int64   `json:"timestamp"`
}

// =============================================================================
// SHIPMENT TYPES
// =============================================================================

// Shipment is the body for POST /shipment/new and an element of the
// GET /shipment/my response.
type Shipment struct {
	ID             string `json:"shipment_id,omitempty"`
	ShipmentNumber string `json:"shipmentNumber"`
	Route          string `json:"route"`
	Device         string `json:"device"`
	PONumber       string `json:"poNumber"`
	ContainerNo    string `json:"containerNumber"`
	GoodsType      string `json:"goodsType"`
	DeliveryDate   string `json:"deliveryDate"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	NDCNumber      string `json:"ndcNumber"`
	SerialNumber   string `json:"serialNumber"`
	DeliveryNumber string `json:"deliveryNumber"`
	BatchID        string `json:"batchId"`
	CreatorEmail   string `json:"creator_email,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// =============================================================================
// PASSWORD RESET TYPES
// =============================================================================

// ResetRequest is the body for POST /reset-password-request.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetConfirm is the body for POST /reset-password-confirm.
type ResetConfirm struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// =============================================================================
// BACKEND ERROR ENVELOPE
// =============================================================================

// backendError is the {"detail": ...} envelope the backend uses for 4xx
// and 5xx responses.
type backendError struct {
	Detail string `json:"detail"`
}
