package routepath

import "testing"

func TestTopLevelRouteConstants(t *testing.T) {
	t.Parallel()

	if Root != "/" {
		t.Fatalf("Root = %q", Root)
	}
	if Login != "/login" {
		t.Fatalf("Login = %q", Login)
	}
	if UserProfile != "/user/profile" {
		t.Fatalf("UserProfile = %q", UserProfile)
	}
	if ClientDashboard != "/client/dashboard" {
		t.Fatalf("ClientDashboard = %q", ClientDashboard)
	}
	if AdminDashboard != "/admin/dashboard" {
		t.Fatalf("AdminDashboard = %q", AdminDashboard)
	}
}

func TestRouteBuilders(t *testing.T) {
	t.Parallel()

	cases := []struct {
		got  string
		want string
	}{
		{got: Spa(7), want: "/spa/7"},
		{got: UserBook(3), want: "/user/book/3"},
		{got: UserBookingPayment(12), want: "/user/bookings/12/payment"},
		{got: ClientSpaManage(4), want: "/client/spa/4/manage"},
		{got: ClientSpaBookings(4), want: "/client/spa/4/bookings"},
		{got: LiveSessionFor(""), want: "/live/session"},
		{got: LiveSessionFor("/a b"), want: "/live/session?path=%2Fa+b"},
		{got: WithQuery("/", "q", ""), want: "/"},
		{got: WithQuery("/", "q", "zen"), want: "/?q=zen"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("route = %q, want %q", tc.got, tc.want)
		}
	}
}
